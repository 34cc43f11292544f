package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sudo-init-do/gamemarket/internal/security"
)

const (
	DefaultLogLimit = 50
	MaxLogLimit     = 500
)

// LogFilter narrows ListLogs. Zero fields match everything.
type LogFilter struct {
	ListingID  string
	OrderID    string
	ActionType security.AuditAction
	Limit      int
}

// AppendLog inserts one audit record. Rows are never updated or deleted.
func (r *Repository) AppendLog(ctx context.Context, l security.Log) error {
	const stmt = `
INSERT INTO security_logs (id, listing_id, order_id, action_type, performed_by, performed_by_username,
                           reason, notes, previous_status, new_status, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	metadata := l.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	_, err := r.exec(ctx, stmt, l.ID, nullable(l.ListingID), nullable(l.OrderID), string(l.ActionType),
		l.PerformedBy, l.PerformedByName, l.Reason, l.Notes, l.PreviousStatus, l.NewStatus, metadata, l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateLog
		}
		return fmt.Errorf("append security log: %w", err)
	}
	return nil
}

// ListLogs returns matching records, newest first.
func (r *Repository) ListLogs(ctx context.Context, f LogFilter) ([]security.Log, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.ListingID != "" {
		add("listing_id = $%d", f.ListingID)
	}
	if f.OrderID != "" {
		add("order_id = $%d", f.OrderID)
	}
	if f.ActionType != "" {
		add("action_type = $%d", string(f.ActionType))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	if limit > MaxLogLimit {
		limit = MaxLogLimit
	}
	args = append(args, limit)

	query := `
SELECT id, COALESCE(listing_id, ''), COALESCE(order_id, ''), action_type, performed_by,
       performed_by_username, reason, notes, previous_status, new_status, metadata, created_at
FROM security_logs`
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf("\nORDER BY created_at DESC, id DESC\nLIMIT $%d", len(args))

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list security logs: %w", err)
	}
	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (security.Log, error) {
		var (
			l      security.Log
			action string
		)
		err := row.Scan(&l.ID, &l.ListingID, &l.OrderID, &action, &l.PerformedBy, &l.PerformedByName,
			&l.Reason, &l.Notes, &l.PreviousStatus, &l.NewStatus, &l.Metadata, &l.CreatedAt)
		l.ActionType = security.AuditAction(action)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan security logs: %w", err)
	}
	return logs, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
