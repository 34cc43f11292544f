package store

import (
	"context"
	"fmt"

	"github.com/sudo-init-do/gamemarket/internal/security"
)

// Stats is the admin dashboard summary.
type Stats struct {
	Users           int                            `json:"users"`
	Listings        map[security.ListingStatus]int `json:"listings"`
	Orders          map[security.ReleaseStatus]int `json:"orders_by_release_status"`
	SecurityLogs    int                            `json:"security_logs"`
	PayoutTransfers int                            `json:"payout_transfers"`
}

func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	s := Stats{
		Listings: make(map[security.ListingStatus]int, len(security.ListingStatuses)),
		Orders:   make(map[security.ReleaseStatus]int, len(security.ReleaseStatuses)),
	}
	for _, st := range security.ListingStatuses {
		s.Listings[st] = 0
	}
	for _, st := range security.ReleaseStatuses {
		s.Orders[st] = 0
	}

	if err := r.countGrouped(ctx, `SELECT status, COUNT(*) FROM listings GROUP BY status`, func(k string, n int) {
		s.Listings[security.ListingStatus(k)] = n
	}); err != nil {
		return Stats{}, err
	}
	if err := r.countGrouped(ctx, `SELECT payment_release_status, COUNT(*) FROM orders GROUP BY payment_release_status`, func(k string, n int) {
		s.Orders[security.ReleaseStatus(k)] = n
	}); err != nil {
		return Stats{}, err
	}

	for _, c := range []struct {
		table string
		dst   *int
	}{
		{"users", &s.Users},
		{"security_logs", &s.SecurityLogs},
		{"payout_transfers", &s.PayoutTransfers},
	} {
		if err := r.queryRow(ctx, `SELECT COUNT(*) FROM `+c.table).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return s, nil
}

func (r *Repository) countGrouped(ctx context.Context, query string, set func(key string, n int)) error {
	rows, err := r.query(ctx, query)
	if err != nil {
		return fmt.Errorf("count grouped: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan grouped count: %w", err)
		}
		set(key, n)
	}
	return rows.Err()
}
