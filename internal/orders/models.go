package orders

import (
	"time"

	"github.com/ariefcatur/emall-pickup/internal/rewards"
)

type Order struct {
	ID               string         `json:"id"`
	CustomerID       string         `json:"customer_id"`
	MerchantID       string         `json:"merchant_id"`
	TotalCents       int            `json:"total_cents"`
	DeliveryMethod   DeliveryMethod `json:"delivery_method"`
	Status           Status         `json:"status"`
	PaymentStatus    PaymentStatus  `json:"payment_status"`
	PickupCode       *string        `json:"pickup_code,omitempty"`
	PickupCodeExpiry *time.Time     `json:"pickup_code_expiry,omitempty"`
	PickupCodeUsed   bool           `json:"pickup_code_used"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type NewPickupOrder struct {
	ID         string
	CustomerID string
	MerchantID string
	TotalCents int
	Code       string
	Expiry     time.Time
}

type RedeemInput struct {
	OrderID    string
	MerchantID string
	Points     int
	Milestones []rewards.Milestone
	Now        time.Time
}

// Redemption is the committed outcome of a pickup confirmation.
type Redemption struct {
	Order   Order
	State   rewards.State
	Granted []rewards.Milestone
}
