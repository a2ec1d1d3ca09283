package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/emall-pickup/internal/postgres"
	"github.com/ariefcatur/emall-pickup/internal/rewards"
)

// RewardsRepo reads merchant reward state and the reward ledger.
type RewardsRepo struct{ DB postgres.DB }

func (r *RewardsRepo) MerchantState(ctx context.Context, merchantID string) (rewards.State, error) {
	var st rewards.State
	err := r.DB.QueryRow(ctx, `
		SELECT id, pickup_orders_count, pickup_rewards_points, discount_percentage
		FROM merchants WHERE id=$1`, merchantID).
		Scan(&st.MerchantID, &st.PickupOrdersCount, &st.PickupRewardsPoints, &st.DiscountPercentage)
	if errors.Is(err, pgx.ErrNoRows) {
		return rewards.State{}, rewards.ErrMerchantNotFound
	}
	return st, err
}

func (r *RewardsRepo) ListGrants(ctx context.Context, merchantID string, limit int) ([]rewards.Grant, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, merchant_id, order_id, milestone_id, reward_type, reward_value, points_earned, description, created_at
		FROM pickup_rewards WHERE merchant_id=$1
		ORDER BY created_at DESC LIMIT $2`, merchantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rewards.Grant
	for rows.Next() {
		var (
			g   rewards.Grant
			typ string
		)
		if err := rows.Scan(&g.ID, &g.MerchantID, &g.OrderID, &g.MilestoneID, &typ, &g.RewardValue,
			&g.PointsEarned, &g.Description, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.RewardType = rewards.RewardType(typ)
		out = append(out, g)
	}
	return out, rows.Err()
}

// PickupStats counts redeemed pickup orders and sums their totals.
func (r *RewardsRepo) PickupStats(ctx context.Context, merchantID string) (rewards.PickupStats, error) {
	var s rewards.PickupStats
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_cents), 0)
		FROM orders
		WHERE merchant_id=$1 AND delivery_method='pickup' AND pickup_code_used`, merchantID).
		Scan(&s.Completed, &s.TotalCents)
	return s, err
}
