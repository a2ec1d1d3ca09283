package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeRegistry tracks which pickup codes are currently outstanding so a new
// order is never handed a code that another live order still carries.
type CodeRegistry struct {
	RDB *redis.Client
}

// Reserve claims code for orderID until ttl elapses. It reports false when
// the code is already held by another order.
func (c *CodeRegistry) Reserve(ctx context.Context, code, orderID string, ttl time.Duration) (bool, error) {
	ok, err := c.RDB.SetNX(ctx, fmt.Sprintf(KeyPickupCode, code), orderID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve pickup code: %w", err)
	}
	return ok, nil
}

// Release drops the reservation, but only while it still belongs to orderID.
func (c *CodeRegistry) Release(ctx context.Context, code, orderID string) error {
	key := fmt.Sprintf(KeyPickupCode, code)
	owner, err := c.RDB.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("release pickup code: %w", err)
	}
	if owner != orderID {
		return nil
	}
	return c.RDB.Del(ctx, key).Err()
}
