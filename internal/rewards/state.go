package rewards

import (
	"errors"
	"time"
)

var ErrMerchantNotFound = errors.New("merchant not found")

// State is the merchant's cumulative reward counters.
type State struct {
	MerchantID          string `json:"merchant_id"`
	PickupOrdersCount   int    `json:"pickup_orders_count"`
	PickupRewardsPoints int    `json:"pickup_rewards_points"`
	DiscountPercentage  int    `json:"discount_percentage"`
}

// Grant is one row of the reward ledger. MilestoneID is nil for the
// per-pickup points credit.
type Grant struct {
	ID           string     `json:"id"`
	MerchantID   string     `json:"merchant_id"`
	OrderID      string     `json:"order_id"`
	MilestoneID  *string    `json:"milestone_id,omitempty"`
	RewardType   RewardType `json:"reward_type"`
	RewardValue  int        `json:"reward_value"`
	PointsEarned int        `json:"points_earned"`
	Description  string     `json:"description"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RewardPoints is the ledger type of a per-pickup points credit.
const RewardPoints RewardType = "points"

type PickupStats struct {
	Completed  int   `json:"completed_pickups"`
	TotalCents int64 `json:"total_cents"`
}
