package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool to Postgres and checks it answers.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tables the service needs. Every statement is
// idempotent so it runs on each start.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	steps := []struct {
		name string
		sql  string
	}{
		{"users", usersTable},
		{"listings", listingsTable},
		{"orders", ordersTable},
		{"security_logs", securityLogsTable},
		{"security_logs_append_only", securityLogsAppendOnly},
		{"payout_transfers", payoutTransfersTable},
	}
	for _, step := range steps {
		if _, err := pool.Exec(ctx, step.sql); err != nil {
			return fmt.Errorf("ensure %s: %w", step.name, err)
		}
		logger.Debug("schema ensured", "event", "schema_ensured", "module", "db", "step", step.name)
	}
	return nil
}

const usersTable = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'buyer' CHECK (role IN ('buyer','seller','admin','admin_master')),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const listingsTable = `
CREATE TABLE IF NOT EXISTS listings (
    id TEXT PRIMARY KEY,
    seller_id TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
    price NUMERIC(14,2) NOT NULL DEFAULT 0,
    currency TEXT NOT NULL DEFAULT 'BRL',
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN (
        'active','paused','in_transfer_security','transferred_confirmed',
        'blocked_security','cancelled','removed'
    )),
    lock_reason TEXT NOT NULL DEFAULT '',
    locked_by TEXT NULL,
    locked_at TIMESTAMPTZ NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK ((locked_by IS NULL) = (locked_at IS NULL))
);
CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`

const ordersTable = `
CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    listing_id TEXT NOT NULL REFERENCES listings(id),
    buyer_id TEXT NOT NULL,
    seller_id TEXT NOT NULL,
    quantity INTEGER NOT NULL CHECK (quantity > 0),
    total_price NUMERIC(14,2) NOT NULL CHECK (total_price >= 0),
    escrow_amount NUMERIC(14,2) NOT NULL CHECK (escrow_amount >= 0),
    currency TEXT NOT NULL DEFAULT 'BRL',
    status TEXT NOT NULL CHECK (status IN (
        'pending_payment','paid','in_progress','delivered',
        'completed','disputed','cancelled','refunded'
    )),
    payment_release_status TEXT NOT NULL DEFAULT 'held' CHECK (payment_release_status IN (
        'held','pending_verification','approved_for_release','released','refunded'
    )),
    payment_released_at TIMESTAMPTZ NULL,
    payment_released_by TEXT NULL,
    payment_release_notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_orders_listing ON orders(listing_id);
CREATE INDEX IF NOT EXISTS idx_orders_release_status ON orders(payment_release_status)`

const securityLogsTable = `
CREATE TABLE IF NOT EXISTS security_logs (
    id TEXT PRIMARY KEY,
    listing_id TEXT NULL,
    order_id TEXT NULL,
    action_type TEXT NOT NULL CHECK (action_type IN (
        'account_marked_in_transfer','account_transfer_confirmed','account_blocked',
        'account_unblocked','payment_released','payment_held','payment_refunded'
    )),
    performed_by TEXT NOT NULL,
    performed_by_username TEXT NOT NULL DEFAULT '',
    reason TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    previous_status TEXT NOT NULL DEFAULT '',
    new_status TEXT NOT NULL DEFAULT '',
    metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_security_logs_listing ON security_logs(listing_id, created_at);
CREATE INDEX IF NOT EXISTS idx_security_logs_order ON security_logs(order_id, created_at)`

const securityLogsAppendOnly = `
CREATE OR REPLACE FUNCTION security_logs_append_only() RETURNS trigger AS $$
BEGIN
    RAISE EXCEPTION 'security_logs is append-only';
END;
$$ LANGUAGE plpgsql;
DROP TRIGGER IF EXISTS trg_security_logs_append_only ON security_logs;
CREATE TRIGGER trg_security_logs_append_only
    BEFORE UPDATE OR DELETE ON security_logs
    FOR EACH ROW EXECUTE FUNCTION security_logs_append_only()`

const payoutTransfersTable = `
CREATE TABLE IF NOT EXISTS payout_transfers (
    id TEXT PRIMARY KEY,
    reference TEXT NOT NULL,
    provider TEXT NOT NULL,
    transaction_id TEXT NOT NULL,
    status TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    original_amount NUMERIC(18,4) NOT NULL,
    original_currency TEXT NOT NULL,
    converted_amount NUMERIC(18,4) NOT NULL,
    exchange_rate NUMERIC(18,6) NOT NULL,
    recipient_name TEXT NOT NULL,
    recipient_document TEXT NOT NULL,
    pix_key TEXT NOT NULL,
    requested_by TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payout_transfers_created ON payout_transfers(created_at);
CREATE UNIQUE INDEX IF NOT EXISTS uq_payout_transfers_reference
    ON payout_transfers(reference) WHERE status <> 'failed'`
