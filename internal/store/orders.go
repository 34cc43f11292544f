package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sudo-init-do/gamemarket/internal/currency"
	"github.com/sudo-init-do/gamemarket/internal/security"
)

const orderColumns = `id, listing_id, buyer_id, seller_id, quantity, total_price::text, escrow_amount::text,
       currency, status, payment_release_status, payment_released_at, payment_released_by,
       payment_release_notes, created_at, updated_at`

// GetOrder returns nil when the order does not exist.
func (r *Repository) GetOrder(ctx context.Context, id string) (*security.Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetOrderForUpdate returns nil when the order does not exist.
func (r *Repository) GetOrderForUpdate(ctx context.Context, id string) (*security.Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *Repository) getOrder(ctx context.Context, query, id string) (*security.Order, error) {
	o, err := scanOrder(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

// InsertOrder creates an order for seeding and tests.
func (r *Repository) InsertOrder(ctx context.Context, o security.Order) error {
	const stmt = `
INSERT INTO orders (id, listing_id, buyer_id, seller_id, quantity, total_price, escrow_amount,
                    currency, status, payment_release_status, payment_released_at,
                    payment_released_by, payment_release_notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.exec(ctx, stmt, o.ID, o.ListingID, o.BuyerID, o.SellerID, o.Quantity,
		o.TotalPrice.String(), o.EscrowAmount.String(), string(o.Currency), string(o.Status),
		string(o.ReleaseStatus), o.ReleasedAt, o.ReleasedBy, o.ReleaseNotes, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// SaveOrder writes back the order status and the release fields.
func (r *Repository) SaveOrder(ctx context.Context, o security.Order) error {
	const stmt = `
UPDATE orders
SET status = $2, payment_release_status = $3, payment_released_at = $4,
    payment_released_by = $5, payment_release_notes = $6, updated_at = $7
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, o.ID, string(o.Status), string(o.ReleaseStatus),
		o.ReleasedAt, o.ReleasedBy, o.ReleaseNotes, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save order %s: %w", o.ID, security.ErrOrderNotFound)
	}
	return nil
}

func scanOrder(row pgx.Row) (security.Order, error) {
	var (
		o                                    security.Order
		total, escrow, code, status, release string
	)
	err := row.Scan(&o.ID, &o.ListingID, &o.BuyerID, &o.SellerID, &o.Quantity, &total, &escrow,
		&code, &status, &release, &o.ReleasedAt, &o.ReleasedBy, &o.ReleaseNotes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return security.Order{}, err
	}
	if o.TotalPrice, err = parseDecimal(total); err != nil {
		return security.Order{}, fmt.Errorf("parse total price: %w", err)
	}
	if o.EscrowAmount, err = parseDecimal(escrow); err != nil {
		return security.Order{}, fmt.Errorf("parse escrow amount: %w", err)
	}
	o.Currency = currency.Code(code)
	o.Status = security.OrderStatus(status)
	o.ReleaseStatus = security.ReleaseStatus(release)
	return o, nil
}
