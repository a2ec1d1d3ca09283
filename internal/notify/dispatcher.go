package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/emall-pickup/internal/kafka"
	"github.com/ariefcatur/emall-pickup/internal/orders"
)

// Dispatcher hands notifications to the notifier worker over Kafka.
type Dispatcher struct {
	Producer    kafka.Publisher
	ServiceName string
}

func (d *Dispatcher) Notify(ctx context.Context, n Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventNotificationRequested,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      d.ServiceName,
		CorrelationID: n.Metadata["order_id"],
		Payload: kafka.MustMarshal(orders.NotificationRequestedPayload{
			NotificationID: n.ID,
			UserID:         n.UserID,
			Title:          n.Title,
			Message:        n.Message,
			Category:       string(n.Category),
			Link:           n.Link,
			Metadata:       n.Metadata,
		}),
	}
	err := d.Producer.Publish(ctx, []byte(n.UserID), kafka.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventNotificationRequested)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
