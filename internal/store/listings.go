package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sudo-init-do/gamemarket/internal/currency"
	"github.com/sudo-init-do/gamemarket/internal/security"
)

const listingColumns = `id, seller_id, title, category, stock, price::text, currency, status,
       lock_reason, locked_by, locked_at, created_at, updated_at`

func (r *Repository) GetListing(ctx context.Context, id string) (security.Listing, error) {
	return r.getListing(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
}

// GetListingForUpdate reads a listing and holds its row lock until the
// surrounding transaction ends.
func (r *Repository) GetListingForUpdate(ctx context.Context, id string) (security.Listing, error) {
	return r.getListing(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1 FOR UPDATE`, id)
}

func (r *Repository) getListing(ctx context.Context, query, id string) (security.Listing, error) {
	l, err := scanListing(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return security.Listing{}, ErrListingNotFound
		}
		return security.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

// InsertListing creates a listing. Checkout and catalog own listing creation
// in production; this exists for seeding and tests.
func (r *Repository) InsertListing(ctx context.Context, l security.Listing) error {
	const stmt = `
INSERT INTO listings (id, seller_id, title, category, stock, price, currency, status,
                      lock_reason, locked_by, locked_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.exec(ctx, stmt, l.ID, l.SellerID, l.Title, l.Category, l.Stock, l.Price.String(),
		string(l.Currency), string(l.Status), l.LockReason, l.LockedBy, l.LockedAt, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// SaveListing writes back the security-owned fields of a listing.
func (r *Repository) SaveListing(ctx context.Context, l security.Listing) error {
	const stmt = `
UPDATE listings
SET status = $2, lock_reason = $3, locked_by = $4, locked_at = $5, updated_at = $6
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, l.ID, string(l.Status), l.LockReason, l.LockedBy, l.LockedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save listing %s: %w", l.ID, ErrListingNotFound)
	}
	return nil
}

func scanListing(row pgx.Row) (security.Listing, error) {
	var (
		l                      security.Listing
		price, code, status string
	)
	err := row.Scan(&l.ID, &l.SellerID, &l.Title, &l.Category, &l.Stock, &price, &code, &status,
		&l.LockReason, &l.LockedBy, &l.LockedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return security.Listing{}, err
	}
	if l.Price, err = parseDecimal(price); err != nil {
		return security.Listing{}, fmt.Errorf("parse price: %w", err)
	}
	l.Currency = currency.Code(code)
	l.Status = security.ListingStatus(status)
	return l, nil
}
