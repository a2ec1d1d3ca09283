package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS merchants (
		id                    TEXT PRIMARY KEY,
		user_id               TEXT NOT NULL,
		business_name         TEXT NOT NULL DEFAULT '',
		pickup_orders_count   INTEGER NOT NULL DEFAULT 0 CHECK (pickup_orders_count >= 0),
		pickup_rewards_points INTEGER NOT NULL DEFAULT 0 CHECK (pickup_rewards_points >= 0),
		discount_percentage   INTEGER NOT NULL DEFAULT 0 CHECK (discount_percentage BETWEEN 0 AND 100),
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id                 TEXT PRIMARY KEY,
		customer_id        TEXT NOT NULL,
		merchant_id        TEXT NOT NULL REFERENCES merchants(id),
		total_cents        INTEGER NOT NULL CHECK (total_cents >= 0),
		delivery_method    TEXT NOT NULL CHECK (delivery_method IN ('delivery','pickup')),
		status             TEXT NOT NULL DEFAULT 'pending'
		                   CHECK (status IN ('pending','confirmed','completed','cancelled')),
		payment_status     TEXT NOT NULL DEFAULT 'pending'
		                   CHECK (payment_status IN ('pending','paid','failed','refunded')),
		pickup_code        TEXT,
		pickup_code_expiry TIMESTAMPTZ,
		pickup_code_used   BOOLEAN NOT NULL DEFAULT false,
		completed_at       TIMESTAMPTZ,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_pickup_code_idx ON orders (pickup_code, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS orders_merchant_pickup_idx ON orders (merchant_id)
		WHERE delivery_method = 'pickup' AND pickup_code_used`,
	`CREATE TABLE IF NOT EXISTS pickup_rewards (
		id            TEXT PRIMARY KEY,
		merchant_id   TEXT NOT NULL REFERENCES merchants(id),
		order_id      TEXT NOT NULL REFERENCES orders(id),
		milestone_id  TEXT,
		reward_type   TEXT NOT NULL,
		reward_value  INTEGER NOT NULL DEFAULT 0,
		points_earned INTEGER NOT NULL DEFAULT 0,
		description   TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS pickup_rewards_milestone_uq
		ON pickup_rewards (merchant_id, milestone_id) WHERE milestone_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS pickup_rewards_order_uq
		ON pickup_rewards (order_id) WHERE milestone_id IS NULL`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		title      TEXT NOT NULL,
		message    TEXT NOT NULL,
		type       TEXT NOT NULL DEFAULT 'info',
		link       TEXT,
		metadata   JSONB,
		is_read    BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at DESC)`,
}

// Migrate creates the tables the service owns. Statements are idempotent.
func Migrate(ctx context.Context, db DB) error {
	for _, q := range schema {
		if _, err := db.Exec(ctx, q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
