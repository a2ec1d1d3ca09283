package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StatusCache holds the JSON order status read by customers polling
// GET /orders/{id}. Postgres stays the source of truth.
type StatusCache struct {
	RDB *redis.Client
}

// Get reports ok=false on a miss.
func (c *StatusCache) Get(ctx context.Context, orderID string) ([]byte, bool, error) {
	b, err := c.RDB.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, len(b) > 0, nil
}

func (c *StatusCache) Set(ctx context.Context, orderID string, body []byte) error {
	return c.RDB.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), body, TTLStatusCache).Err()
}

func (c *StatusCache) Invalidate(ctx context.Context, orderID string) error {
	return c.RDB.Del(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Err()
}

// Processed reports whether eventID was already handled by service.
func Processed(ctx context.Context, rdb *redis.Client, service, eventID string) (bool, error) {
	n, err := rdb.Exists(ctx, fmt.Sprintf(KeyDedup, service, eventID)).Result()
	return n > 0, err
}

// MarkProcessed records eventID for service. Call it only once the side
// effect is durable, otherwise a crash in between loses the message.
func MarkProcessed(ctx context.Context, rdb *redis.Client, service, eventID string) error {
	return rdb.Set(ctx, fmt.Sprintf(KeyDedup, service, eventID), "1", TTLDedup).Err()
}
