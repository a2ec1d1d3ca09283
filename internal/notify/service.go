package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ariefcatur/emall-pickup/internal/kafka"
	"github.com/ariefcatur/emall-pickup/internal/orders"
	"github.com/ariefcatur/emall-pickup/internal/redisx"
)

type Store interface {
	Insert(ctx context.Context, n Notification, at time.Time) (bool, error)
}

// Service persists requested notifications. Delivery beyond the in-app
// inbox is not handled here.
type Service struct {
	Store       Store
	Redis       *redis.Client
	ServiceName string
	Log         *zap.Logger
}

// HandleMessage is installed as the consumer handler.
func (s *Service) HandleMessage(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// a poison message would block the partition forever
		s.log().Error("drop undecodable message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventNotificationRequested {
		return nil
	}

	seen, err := redisx.Processed(ctx, s.Redis, s.ServiceName, env.EventID)
	if err != nil {
		// Redis down: the ON CONFLICT insert still keeps us idempotent
		s.log().Warn("dedup unavailable", zap.String("event_id", env.EventID), zap.Error(err))
	}
	if seen {
		return nil
	}

	p, err := kafka.UnwrapPayload[orders.NotificationRequestedPayload](env.Payload)
	if err != nil {
		s.log().Error("drop bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	n := Notification{
		ID:       p.NotificationID,
		UserID:   p.UserID,
		Title:    p.Title,
		Message:  p.Message,
		Category: Category(p.Category),
		Link:     p.Link,
		Metadata: p.Metadata,
	}
	if n.ID == "" {
		n.ID = env.EventID
	}
	if err := n.Validate(); err != nil {
		s.log().Error("drop invalid notification", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	inserted, err := s.Store.Insert(ctx, n, env.OccurredAt)
	if err != nil {
		return err
	}
	if err := redisx.MarkProcessed(ctx, s.Redis, s.ServiceName, env.EventID); err != nil {
		s.log().Warn("mark processed", zap.String("event_id", env.EventID), zap.Error(err))
	}
	s.log().Info("notification stored",
		zap.String("notification_id", n.ID),
		zap.String("user_id", n.UserID),
		zap.String("type", string(n.Category)),
		zap.Bool("replayed", !inserted))
	return nil
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
