package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ariefcatur/emall-pickup/internal/postgres"
	"github.com/ariefcatur/emall-pickup/internal/rewards"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrConflict means a conditional update matched no row: the order
	// changed between the read and the write.
	ErrConflict = errors.New("order changed concurrently")
)

const orderColumns = `id, customer_id, merchant_id, total_cents, delivery_method, status, payment_status,
	pickup_code, pickup_code_expiry, pickup_code_used, completed_at, created_at, updated_at`

type Repo struct{ DB postgres.DB }

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o                        Order
		delivery, status, paymnt string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.MerchantID, &o.TotalCents, &delivery, &status, &paymnt,
		&o.PickupCode, &o.PickupCodeExpiry, &o.PickupCodeUsed, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.DeliveryMethod = DeliveryMethod(delivery)
	o.Status = Status(status)
	o.PaymentStatus = PaymentStatus(paymnt)
	return o, nil
}

func (r *Repo) CreatePickupOrder(ctx context.Context, in NewPickupOrder) (Order, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	row := r.DB.QueryRow(ctx, `
		INSERT INTO orders(id, customer_id, merchant_id, total_cents, delivery_method, status, payment_status,
		                   pickup_code, pickup_code_expiry, pickup_code_used)
		VALUES ($1, $2, $3, $4, 'pickup', 'pending', 'pending', $5, $6, false)
		RETURNING `+orderColumns,
		in.ID, in.CustomerID, in.MerchantID, in.TotalCents, in.Code, in.Expiry)
	o, err := scanOrder(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Order{}, rewards.ErrMerchantNotFound
		}
		return Order{}, fmt.Errorf("insert pickup order: %w", err)
	}
	return o, nil
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	return o, err
}

// FindByPickupCode returns the most recent order carrying code.
func (r *Repo) FindByPickupCode(ctx context.Context, code string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE pickup_code=$1 AND delivery_method='pickup'
		ORDER BY created_at DESC LIMIT 1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	return o, err
}

// RegeneratePickupCode swaps in a fresh code while the order is still open
// and its current code unused.
func (r *Repo) RegeneratePickupCode(ctx context.Context, orderID, code string, expiry, now time.Time) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `
		UPDATE orders SET pickup_code=$2, pickup_code_expiry=$3, updated_at=$4
		WHERE id=$1 AND delivery_method='pickup' AND pickup_code_used=false
		  AND status IN ('pending','confirmed')
		RETURNING `+orderColumns, orderID, code, expiry, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrConflict
	}
	return o, err
}

// RedeemPickup completes the order and credits the merchant in one
// transaction. The order update is conditional on the code still being
// unused, unexpired and owned by the merchant; when it matches no row the
// whole redemption is abandoned with ErrConflict.
//
// Every milestone at or below the new count is offered to the ledger; the
// unique (merchant_id, milestone_id) index keeps grants exactly-once, so
// only the rows actually inserted are reported as granted.
func (r *Repo) RedeemPickup(ctx context.Context, in RedeemInput) (*Redemption, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders
		SET pickup_code_used=true, status='completed', completed_at=$3, updated_at=$3
		WHERE id=$1 AND merchant_id=$2 AND delivery_method='pickup'
		  AND pickup_code_used=false AND status IN ('pending','confirmed')
		  AND (pickup_code_expiry IS NULL OR pickup_code_expiry >= $3)
		RETURNING `+orderColumns, in.OrderID, in.MerchantID, in.Now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}

	st := rewards.State{MerchantID: in.MerchantID}
	err = tx.QueryRow(ctx, `
		UPDATE merchants
		SET pickup_orders_count = pickup_orders_count + 1,
		    pickup_rewards_points = pickup_rewards_points + $2,
		    updated_at = $3
		WHERE id=$1
		RETURNING pickup_orders_count, pickup_rewards_points, discount_percentage`,
		in.MerchantID, in.Points, in.Now).Scan(&st.PickupOrdersCount, &st.PickupRewardsPoints, &st.DiscountPercentage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, rewards.ErrMerchantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("credit merchant: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO pickup_rewards(id, merchant_id, order_id, milestone_id, reward_type, reward_value,
		                           points_earned, description, created_at)
		VALUES ($1, $2, $3, NULL, $4, 0, $5, $6, $7)
		ON CONFLICT (order_id) WHERE milestone_id IS NULL DO NOTHING`,
		uuid.NewString(), in.MerchantID, in.OrderID, string(rewards.RewardPoints), in.Points,
		fmt.Sprintf("Pickup order %s completed", in.OrderID), in.Now); err != nil {
		return nil, fmt.Errorf("record pickup points: %w", err)
	}

	var granted []rewards.Milestone
	for _, m := range rewards.Crossed(in.Milestones, 0, st.PickupOrdersCount) {
		ct, err := tx.Exec(ctx, `
			INSERT INTO pickup_rewards(id, merchant_id, order_id, milestone_id, reward_type, reward_value,
			                           points_earned, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
			ON CONFLICT (merchant_id, milestone_id) WHERE milestone_id IS NOT NULL DO NOTHING`,
			uuid.NewString(), in.MerchantID, in.OrderID, m.ID, string(m.RewardType), m.RewardValue,
			m.Description, in.Now)
		if err != nil {
			return nil, fmt.Errorf("grant milestone %s: %w", m.ID, err)
		}
		if ct.RowsAffected() == 1 {
			granted = append(granted, m)
		}
	}

	if pct := rewards.DiscountPercent(granted); pct > st.DiscountPercentage {
		err = tx.QueryRow(ctx, `
			UPDATE merchants SET discount_percentage = LEAST(100, GREATEST(discount_percentage, $2))
			WHERE id=$1 RETURNING discount_percentage`, in.MerchantID, pct).Scan(&st.DiscountPercentage)
		if err != nil {
			return nil, fmt.Errorf("raise discount: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &Redemption{Order: o, State: st, Granted: granted}, nil
}
