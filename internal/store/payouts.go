package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/gamemarket/internal/currency"
	"github.com/sudo-init-do/gamemarket/internal/payout"
)

// Transfer is the persisted record of one payout attempt. It is saved as
// pending before the provider is called and updated with the outcome.
type Transfer struct {
	ID                string          `json:"id"`
	Reference         string          `json:"reference"`
	Provider          string          `json:"provider"`
	TransactionID     string          `json:"transaction_id"`
	Status            payout.Status   `json:"status"`
	Message           string          `json:"message"`
	OriginalAmount    decimal.Decimal `json:"original_amount"`
	OriginalCurrency  currency.Code   `json:"original_currency"`
	ConvertedAmount   decimal.Decimal `json:"converted_amount"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate"`
	RecipientName     string          `json:"recipient_name"`
	RecipientDocument string          `json:"recipient_document"`
	PixKey            string          `json:"pix_key"`
	RequestedBy       string          `json:"requested_by"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (r *Repository) SaveTransfer(ctx context.Context, t Transfer) error {
	const stmt = `
INSERT INTO payout_transfers (id, reference, provider, transaction_id, status, message,
                              original_amount, original_currency, converted_amount, exchange_rate,
                              recipient_name, recipient_document, pix_key, requested_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9::numeric, $10::numeric, $11, $12, $13, $14, $15)`

	_, err := r.exec(ctx, stmt, t.ID, t.Reference, t.Provider, t.TransactionID, string(t.Status), t.Message,
		t.OriginalAmount.String(), string(t.OriginalCurrency), t.ConvertedAmount.String(), t.ExchangeRate.String(),
		t.RecipientName, t.RecipientDocument, t.PixKey, t.RequestedBy, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTransfer
		}
		return fmt.Errorf("save transfer: %w", err)
	}
	return nil
}

// UpdateTransfer records the provider outcome on a reserved transfer.
// A failed status frees the reference for another attempt.
func (r *Repository) UpdateTransfer(ctx context.Context, t Transfer) error {
	const stmt = `
UPDATE payout_transfers
SET provider = $2, transaction_id = $3, status = $4, message = $5
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, t.ID, t.Provider, t.TransactionID, string(t.Status), t.Message)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transfer %s: no such transfer", t.ID)
	}
	return nil
}

// ListTransfers returns the most recent transfers first.
func (r *Repository) ListTransfers(ctx context.Context, limit int) ([]Transfer, error) {
	if limit <= 0 || limit > MaxLogLimit {
		limit = DefaultLogLimit
	}
	const query = `
SELECT id, reference, provider, transaction_id, status, message, original_amount::text,
       original_currency, converted_amount::text, exchange_rate::text, recipient_name,
       recipient_document, pix_key, requested_by, created_at
FROM payout_transfers
ORDER BY created_at DESC, id DESC
LIMIT $1`

	rows, err := r.query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	transfers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Transfer, error) {
		var (
			t                                  Transfer
			status, original, code, conv, rate string
		)
		if err := row.Scan(&t.ID, &t.Reference, &t.Provider, &t.TransactionID, &status, &t.Message,
			&original, &code, &conv, &rate, &t.RecipientName, &t.RecipientDocument, &t.PixKey,
			&t.RequestedBy, &t.CreatedAt); err != nil {
			return Transfer{}, err
		}
		t.Status = payout.Status(status)
		t.OriginalCurrency = currency.Code(code)
		var err error
		if t.OriginalAmount, err = parseDecimal(original); err != nil {
			return Transfer{}, err
		}
		if t.ConvertedAmount, err = parseDecimal(conv); err != nil {
			return Transfer{}, err
		}
		if t.ExchangeRate, err = parseDecimal(rate); err != nil {
			return Transfer{}, err
		}
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan transfers: %w", err)
	}
	return transfers, nil
}
