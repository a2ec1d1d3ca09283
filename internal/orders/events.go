package orders

import (
	"encoding/json"
	"time"
)

const (
	EventPickupOrderCreated    = "PickupOrderCreated"
	EventPickupCodeRegenerated = "PickupCodeRegenerated"
	EventPickupRedeemed        = "PickupRedeemed"
	EventRewardGranted         = "RewardGranted"
	EventNotificationRequested = "NotificationRequested"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // usually the order id
	Payload       json.RawMessage `json:"payload"`
}

type PickupOrderCreatedPayload struct {
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	MerchantID string    `json:"merchant_id"`
	TotalCents int       `json:"total_cents"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type PickupCodeRegeneratedPayload struct {
	OrderID   string    `json:"order_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PickupRedeemedPayload struct {
	OrderID           string    `json:"order_id"`
	CustomerID        string    `json:"customer_id"`
	MerchantID        string    `json:"merchant_id"`
	TotalCents        int       `json:"total_cents"`
	PickupOrdersCount int       `json:"pickup_orders_count"`
	PointsEarned      int       `json:"points_earned"`
	RedeemedAt        time.Time `json:"redeemed_at"`
}

type RewardGrantedPayload struct {
	MerchantID  string `json:"merchant_id"`
	OrderID     string `json:"order_id"`
	MilestoneID string `json:"milestone_id"`
	RewardType  string `json:"reward_type"`
	RewardValue int    `json:"reward_value"`
}

// NotificationRequestedPayload carries the dispatcher contract
// (recipient, title, message, category, optional deep link).
type NotificationRequestedPayload struct {
	NotificationID string            `json:"notification_id"`
	UserID         string            `json:"user_id"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Category       string            `json:"category"`
	Link           string            `json:"link,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}
