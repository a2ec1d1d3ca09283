package pickup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ariefcatur/emall-pickup/internal/kafka"
	"github.com/ariefcatur/emall-pickup/internal/metrics"
	"github.com/ariefcatur/emall-pickup/internal/notify"
	"github.com/ariefcatur/emall-pickup/internal/orders"
	"github.com/ariefcatur/emall-pickup/internal/rewards"
)

type Store interface {
	CreatePickupOrder(ctx context.Context, in orders.NewPickupOrder) (orders.Order, error)
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
	FindByPickupCode(ctx context.Context, code string) (orders.Order, error)
	RegeneratePickupCode(ctx context.Context, orderID, code string, expiry, now time.Time) (orders.Order, error)
	RedeemPickup(ctx context.Context, in orders.RedeemInput) (*orders.Redemption, error)
}

// CodeRegistry keeps outstanding codes unique across live orders.
type CodeRegistry interface {
	Reserve(ctx context.Context, code, orderID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, code, orderID string) error
}

type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

type StatusCache interface {
	Invalidate(ctx context.Context, orderID string) error
}

// Service runs the pickup protocol. Codes, Notifier, Events and Cache are
// optional; side effects on them never fail a committed operation.
type Service struct {
	Store    Store
	Codes    CodeRegistry
	Notifier Notifier
	Events   kafka.Publisher
	Cache    StatusCache

	Milestones     []rewards.Milestone
	Points         int
	CodeTTLMinutes int
	ServiceName    string

	Log     *zap.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

type IssueInput struct {
	CustomerID string
	MerchantID string
	TotalCents int
}

type Confirmation struct {
	Order        orders.Order        `json:"order"`
	State        rewards.State       `json:"rewards"`
	Granted      []rewards.Milestone `json:"granted_milestones"`
	PointsEarned int                 `json:"points_earned"`
	Progress     rewards.Progress    `json:"progress"`
}

const maxCodeAttempts = 5

func (s *Service) IssuePickupOrder(ctx context.Context, in IssueInput) (orders.Order, error) {
	if in.CustomerID == "" || in.MerchantID == "" || in.TotalCents < 0 {
		return orders.Order{}, fmt.Errorf("%w: customer, merchant and a non-negative total are required", ErrInvalidOrder)
	}
	now := s.now()
	expiry := ComputeExpiry(now, s.ttlMinutes())
	orderID := uuid.NewString()

	code, err := s.allocateCode(ctx, orderID, expiry.Sub(now))
	if err != nil {
		return orders.Order{}, err
	}
	o, err := s.Store.CreatePickupOrder(ctx, orders.NewPickupOrder{
		ID:         orderID,
		CustomerID: in.CustomerID,
		MerchantID: in.MerchantID,
		TotalCents: in.TotalCents,
		Code:       code,
		Expiry:     expiry,
	})
	if err != nil {
		s.releaseCode(ctx, code, orderID)
		return orders.Order{}, err
	}

	s.Metrics.CodeIssued()
	s.publish(ctx, o.ID, orders.EventPickupOrderCreated, orders.PickupOrderCreatedPayload{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		MerchantID: o.MerchantID,
		TotalCents: o.TotalCents,
		ExpiresAt:  expiry,
	})
	s.notify(ctx, notify.Notification{
		UserID:   o.MerchantID,
		Title:    "New Order Received!",
		Message:  fmt.Sprintf("New Pickup order #%s - %s", notify.ShortID(o.ID), formatAmount(o.TotalCents)),
		Category: notify.CategoryOrder,
		Link:     "/dashboard/orders/" + o.ID,
		Metadata: map[string]string{
			"order_id":        o.ID,
			"customer_id":     o.CustomerID,
			"delivery_method": string(orders.DeliveryPickup),
		},
	})
	s.log().Info("pickup order created",
		zap.String("order_id", o.ID),
		zap.String("merchant_id", o.MerchantID),
		zap.Time("expires_at", expiry))
	return o, nil
}

// RegenerateCode issues a fresh code for an open pickup order, typically
// after the previous one expired at the counter.
func (s *Service) RegenerateCode(ctx context.Context, customerID, orderID string) (orders.Order, error) {
	o, err := s.CustomerOrder(ctx, customerID, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if err := regenerable(o); err != nil {
		return orders.Order{}, err
	}

	now := s.now()
	expiry := ComputeExpiry(now, s.ttlMinutes())
	code, err := s.allocateCode(ctx, o.ID, expiry.Sub(now))
	if err != nil {
		return orders.Order{}, err
	}
	updated, err := s.Store.RegeneratePickupCode(ctx, o.ID, code, expiry, now)
	if err != nil {
		s.releaseCode(ctx, code, o.ID)
		if errors.Is(err, orders.ErrConflict) {
			if fresh, gerr := s.Store.GetOrder(ctx, o.ID); gerr == nil {
				if rerr := regenerable(fresh); rerr != nil {
					return orders.Order{}, rerr
				}
			}
		}
		return orders.Order{}, fmt.Errorf("regenerate pickup code: %w", err)
	}
	if o.PickupCode != nil && *o.PickupCode != code {
		s.releaseCode(ctx, *o.PickupCode, o.ID)
	}

	s.Metrics.CodeIssued()
	s.invalidate(ctx, o.ID)
	s.publish(ctx, o.ID, orders.EventPickupCodeRegenerated, orders.PickupCodeRegeneratedPayload{
		OrderID:   o.ID,
		ExpiresAt: expiry,
	})
	s.log().Info("pickup code regenerated", zap.String("order_id", o.ID), zap.Time("expires_at", expiry))
	return updated, nil
}

func regenerable(o orders.Order) error {
	switch {
	case o.DeliveryMethod != orders.DeliveryPickup:
		return ErrNotPickup
	case o.PickupCodeUsed:
		return ErrAlreadyRedeemed
	case o.Status.Closed():
		return ErrOrderClosed
	}
	return nil
}

// CustomerOrder hides orders of other customers as not found.
func (s *Service) CustomerOrder(ctx context.Context, customerID, orderID string) (orders.Order, error) {
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if o.CustomerID != customerID {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return o, nil
}

// Verify checks a submitted code for merchantID without changing anything.
func (s *Service) Verify(ctx context.Context, merchantID, raw string) (orders.Order, error) {
	code, err := ParseCode(raw)
	if err != nil {
		s.Metrics.Verification(Reason(err))
		return orders.Order{}, err
	}

	var found *orders.Order
	o, err := s.Store.FindByPickupCode(ctx, code)
	switch {
	case err == nil:
		found = &o
	case errors.Is(err, orders.ErrOrderNotFound):
	default:
		return orders.Order{}, fmt.Errorf("lookup pickup code: %w", err)
	}

	state, err := Evaluate(found, merchantID, s.now())
	s.Metrics.Verification(Reason(err))
	s.log().Info("pickup verification",
		zap.String("merchant_id", merchantID),
		zap.String("order_id", o.ID),
		zap.String("state", string(state)),
		zap.String("outcome", Reason(err)))
	if err != nil {
		return orders.Order{}, err
	}
	return o, nil
}

// Confirm redeems a verified code. The store applies the redemption with a
// conditional update, so of two concurrent confirmations only one wins; the
// loser is told why by re-evaluating the order as it now stands.
func (s *Service) Confirm(ctx context.Context, merchantID, raw string) (*Confirmation, error) {
	o, err := s.Verify(ctx, merchantID, raw)
	if err != nil {
		return nil, err
	}

	red, err := s.Store.RedeemPickup(ctx, orders.RedeemInput{
		OrderID:    o.ID,
		MerchantID: merchantID,
		Points:     s.Points,
		Milestones: s.Milestones,
		Now:        s.now(),
	})
	if errors.Is(err, orders.ErrConflict) {
		return nil, s.explainConflict(ctx, o.ID, merchantID)
	}
	if err != nil {
		return nil, fmt.Errorf("redeem pickup: %w", err)
	}

	s.afterRedeem(ctx, red)
	granted := red.Granted
	if granted == nil {
		granted = []rewards.Milestone{}
	}
	return &Confirmation{
		Order:        red.Order,
		State:        red.State,
		Granted:      granted,
		PointsEarned: s.Points,
		Progress:     rewards.ComputeProgress(red.State.PickupOrdersCount, s.Milestones),
	}, nil
}

func (s *Service) explainConflict(ctx context.Context, orderID, merchantID string) error {
	fresh, err := s.Store.GetOrder(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reload order: %w", err)
	}
	if _, verr := Evaluate(&fresh, merchantID, s.now()); verr != nil {
		s.Metrics.Verification(Reason(verr))
		return verr
	}
	return fmt.Errorf("redeem pickup: %w", orders.ErrConflict)
}

func (s *Service) afterRedeem(ctx context.Context, red *orders.Redemption) {
	o := red.Order
	s.Metrics.Redeemed()
	if o.PickupCode != nil {
		s.releaseCode(ctx, *o.PickupCode, o.ID)
	}
	s.invalidate(ctx, o.ID)

	s.notify(ctx, notify.Notification{
		UserID:   o.CustomerID,
		Title:    "Order Picked Up",
		Message:  fmt.Sprintf("Your order #%s has been picked up successfully. Enjoy your purchase!", notify.ShortID(o.ID)),
		Category: notify.CategorySuccess,
		Link:     "/orders/" + o.ID,
		Metadata: map[string]string{"order_id": o.ID},
	})
	s.publish(ctx, o.ID, orders.EventPickupRedeemed, orders.PickupRedeemedPayload{
		OrderID:           o.ID,
		CustomerID:        o.CustomerID,
		MerchantID:        o.MerchantID,
		TotalCents:        o.TotalCents,
		PickupOrdersCount: red.State.PickupOrdersCount,
		PointsEarned:      s.Points,
		RedeemedAt:        s.now(),
	})

	for _, m := range red.Granted {
		s.Metrics.RewardGranted(string(m.RewardType))
		s.notify(ctx, notify.Notification{
			UserID:   o.MerchantID,
			Title:    "Milestone Reached!",
			Message:  fmt.Sprintf("You completed %d pickup orders and unlocked: %s", m.PickupsRequired, m.Description),
			Category: notify.CategoryReward,
			Link:     "/dashboard/rewards",
			Metadata: map[string]string{"milestone_id": m.ID, "order_id": o.ID},
		})
		s.publish(ctx, o.ID, orders.EventRewardGranted, orders.RewardGrantedPayload{
			MerchantID:  o.MerchantID,
			OrderID:     o.ID,
			MilestoneID: m.ID,
			RewardType:  string(m.RewardType),
			RewardValue: m.RewardValue,
		})
	}

	s.log().Info("pickup redeemed",
		zap.String("order_id", o.ID),
		zap.String("merchant_id", o.MerchantID),
		zap.Int("pickup_orders_count", red.State.PickupOrdersCount),
		zap.Int("milestones_granted", len(red.Granted)))
}

// allocateCode retries on collisions with outstanding codes. When the
// registry itself is unreachable the code is used unchecked.
func (s *Service) allocateCode(ctx context.Context, orderID string, ttl time.Duration) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := GenerateCode()
		if err != nil {
			return "", err
		}
		if s.Codes == nil {
			return code, nil
		}
		ok, err := s.Codes.Reserve(ctx, code, orderID, ttl)
		if err != nil {
			s.log().Warn("pickup code registry unavailable", zap.String("order_id", orderID), zap.Error(err))
			return code, nil
		}
		if ok {
			return code, nil
		}
		s.log().Debug("pickup code collision", zap.String("order_id", orderID), zap.Int("attempt", i+1))
	}
	return "", ErrCodeUnavailable
}

func (s *Service) releaseCode(ctx context.Context, code, orderID string) {
	if s.Codes == nil {
		return
	}
	if err := s.Codes.Release(ctx, code, orderID); err != nil {
		s.log().Warn("release pickup code", zap.String("order_id", orderID), zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context, orderID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, orderID); err != nil {
		s.log().Warn("invalidate order status cache", zap.String("order_id", orderID), zap.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, n notify.Notification) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		s.log().Warn("notification not dispatched",
			zap.String("user_id", n.UserID),
			zap.String("title", n.Title),
			zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, orderID, eventType string, payload any) {
	if s.Events == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    s.now(),
		Producer:      s.ServiceName,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: orderID,
		Payload:       kafka.MustMarshal(payload),
	}
	err := s.Events.Publish(ctx, orders.PartitionKey(orderID), kafka.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	if err != nil {
		s.log().Warn("event not published",
			zap.String("event_type", eventType),
			zap.String("order_id", orderID),
			zap.Error(err))
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) ttlMinutes() int {
	if s.CodeTTLMinutes > 0 {
		return s.CodeTTLMinutes
	}
	return DefaultTTLMinutes
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func formatAmount(cents int) string {
	return fmt.Sprintf("%d.%02d EGP", cents/100, cents%100)
}
