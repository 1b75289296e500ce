package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                BIGSERIAL PRIMARY KEY,
		email             TEXT NOT NULL DEFAULT '',
		first_name        TEXT NOT NULL DEFAULT '',
		role              TEXT NOT NULL DEFAULT 'buyer',
		referred_by       BIGINT REFERENCES users(id),
		referral_earnings NUMERIC(12,2) NOT NULL DEFAULT 0,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id                   BIGSERIAL PRIMARY KEY,
		product_name         TEXT NOT NULL,
		seller_id            BIGINT,
		price                NUMERIC(12,2) NOT NULL DEFAULT 0,
		stock_quantity       INT NOT NULL DEFAULT 0,
		affiliate_commission NUMERIC(5,2),
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id              BIGSERIAL PRIMARY KEY,
		invoice         TEXT NOT NULL UNIQUE,
		user_id         BIGINT NOT NULL REFERENCES users(id),
		seller_id       BIGINT,
		status          TEXT NOT NULL DEFAULT 'pending',
		subtotal        NUMERIC(12,2) NOT NULL DEFAULT 0,
		tax_amount      NUMERIC(12,2) NOT NULL DEFAULT 0,
		delivery_fee    NUMERIC(12,2) NOT NULL DEFAULT 0,
		discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		total_amount    NUMERIC(12,2) NOT NULL DEFAULT 0,
		version         INT NOT NULL DEFAULT 0,
		delivered_at    TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id         BIGSERIAL PRIMARY KEY,
		order_id   BIGINT NOT NULL REFERENCES orders(id),
		product_id BIGINT NOT NULL REFERENCES products(id),
		quantity   INT NOT NULL CHECK (quantity > 0),
		price      NUMERIC(12,2) NOT NULL,
		seller_id  BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS order_cancel_log (
		id         BIGSERIAL PRIMARY KEY,
		order_id   BIGINT NOT NULL REFERENCES orders(id),
		seller_id  BIGINT,
		reason     TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'processing' CHECK (status IN ('processing','refunded','failed')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS referral_earnings (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id),
		order_id   BIGINT REFERENCES orders(id),
		amount     NUMERIC(12,2) NOT NULL,
		status     TEXT NOT NULL CHECK (status IN ('pending','approved','cancelled','paid')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_referral_earnings_order
		ON referral_earnings(order_id) WHERE order_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS withdrawals (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL REFERENCES users(id),
		amount          NUMERIC(12,2) NOT NULL CHECK (amount > 0),
		status          TEXT NOT NULL DEFAULT 'pending',
		payment_details JSONB NOT NULL DEFAULT '{}',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS seller_notifications (
		id         BIGSERIAL PRIMARY KEY,
		event_id   UUID NOT NULL UNIQUE,
		seller_id  BIGINT NOT NULL,
		order_id   BIGINT NOT NULL,
		kind       TEXT NOT NULL,
		title      TEXT NOT NULL,
		message    TEXT NOT NULL,
		link       TEXT NOT NULL DEFAULT '',
		read_at    TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the tables this service owns. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
