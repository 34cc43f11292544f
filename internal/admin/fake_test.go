package admin

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/gamemarket/internal/auth"
	"github.com/sudo-init-do/gamemarket/internal/currency"
	"github.com/sudo-init-do/gamemarket/internal/payout"
	"github.com/sudo-init-do/gamemarket/internal/security"
	"github.com/sudo-init-do/gamemarket/internal/store"
)

// memStore keeps everything in maps. WithTx serializes transactions and
// restores the previous state when fn fails.
type memStore struct {
	tx sync.Mutex
	mu sync.Mutex

	listings  map[string]security.Listing
	orders    map[string]security.Order
	logs      []security.Log
	transfers []store.Transfer
	users     map[string]store.UserSummary

	failAppend error
	failRead   error
}

func newMemStore() *memStore {
	return &memStore{
		listings: map[string]security.Listing{},
		orders:   map[string]security.Order{},
		users:    map[string]store.UserSummary{},
	}
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.tx.Lock()
	defer m.tx.Unlock()

	m.mu.Lock()
	listings, orders, logs := maps.Clone(m.listings), maps.Clone(m.orders), len(m.logs)
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.listings, m.orders, m.logs = listings, orders, m.logs[:logs]
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) GetListingForUpdate(ctx context.Context, id string) (security.Listing, error) {
	return m.GetListing(ctx, id)
}

func (m *memStore) GetListing(_ context.Context, id string) (security.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRead != nil {
		return security.Listing{}, m.failRead
	}
	l, ok := m.listings[id]
	if !ok {
		return security.Listing{}, store.ErrListingNotFound
	}
	return l, nil
}

func (m *memStore) GetOrderForUpdate(ctx context.Context, id string) (*security.Order, error) {
	return m.GetOrder(ctx, id)
}

func (m *memStore) GetOrder(_ context.Context, id string) (*security.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *memStore) SaveListing(_ context.Context, l security.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
	return nil
}

func (m *memStore) SaveOrder(_ context.Context, o security.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *memStore) AppendLog(_ context.Context, l security.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppend != nil {
		return m.failAppend
	}
	m.logs = append(m.logs, l)
	return nil
}

func (m *memStore) ListLogs(_ context.Context, f store.LogFilter) ([]security.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []security.Log
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		if (f.ListingID == "" || l.ListingID == f.ListingID) &&
			(f.OrderID == "" || l.OrderID == f.OrderID) &&
			(f.ActionType == "" || l.ActionType == f.ActionType) {
			out = append(out, l)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) Stats(context.Context) (store.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := store.Stats{
		Users:           len(m.users),
		Listings:        map[security.ListingStatus]int{},
		Orders:          map[security.ReleaseStatus]int{},
		SecurityLogs:    len(m.logs),
		PayoutTransfers: len(m.transfers),
	}
	for _, l := range m.listings {
		s.Listings[l.Status]++
	}
	for _, o := range m.orders {
		s.Orders[o.ReleaseStatus]++
	}
	return s, nil
}

func (m *memStore) ListUsers(context.Context) ([]store.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.UserSummary, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) FindUserByID(_ context.Context, id string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return auth.User{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, IsActive: u.IsActive}, nil
}

func (m *memStore) setRole(id string, role auth.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.Role = role
	m.users[id] = u
}

func (m *memStore) SetUserActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return auth.ErrUserNotFound
	}
	u.IsActive = active
	m.users[id] = u
	return nil
}

// SaveTransfer mirrors the partial unique index on reference.
func (m *memStore) SaveTransfer(_ context.Context, t store.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.transfers {
		if existing.Reference == t.Reference && existing.Status != payout.StatusFailed {
			return store.ErrDuplicateTransfer
		}
	}
	m.transfers = append(m.transfers, t)
	return nil
}

func (m *memStore) UpdateTransfer(_ context.Context, t store.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transfers {
		if m.transfers[i].ID == t.ID {
			m.transfers[i] = t
			return nil
		}
	}
	return errors.New("no such transfer")
}

func (m *memStore) transfersFor(reference string) []store.Transfer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Transfer
	for _, t := range m.transfers {
		if t.Reference == reference {
			out = append(out, t)
		}
	}
	return out
}

func (m *memStore) ListTransfers(_ context.Context, limit int) ([]store.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.Transfer, 0, len(m.transfers))
	for i := len(m.transfers) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.transfers[i])
	}
	return out, nil
}

func (m *memStore) logCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}

type recordingNotifier struct {
	mu        sync.Mutex
	security  []security.Log
	transfers []store.Transfer
	err       error
}

func (n *recordingNotifier) NotifySecurityAction(_ context.Context, l security.Log) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.security = append(n.security, l)
	return n.err
}

func (n *recordingNotifier) NotifyPayout(_ context.Context, t store.Transfer) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transfers = append(n.transfers, t)
	return n.err
}

var (
	fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	master = auth.Actor{ID: "master-1", Username: "root", Role: auth.RoleAdminMaster}
	staff  = auth.Actor{ID: "admin-7", Username: "helper", Role: auth.RoleAdmin}

	errDatabaseDown = errors.New("database unreachable")
)

func seedListing(m *memStore, id string, status security.ListingStatus, stock int) security.Listing {
	l := security.Listing{
		ID:        id,
		SellerID:  "seller-1",
		Title:     "Diamond rank account",
		Category:  "accounts",
		Stock:     stock,
		Price:     decimal.RequireFromString("150.00"),
		Currency:  currency.BRL,
		Status:    status,
		CreatedAt: fixedNow.Add(-48 * time.Hour),
		UpdatedAt: fixedNow.Add(-48 * time.Hour),
	}
	m.listings[id] = l
	return l
}

func seedOrder(m *memStore, id, listingID string, status security.OrderStatus, release security.ReleaseStatus) security.Order {
	o := security.Order{
		ID:            id,
		ListingID:     listingID,
		BuyerID:       "buyer-1",
		SellerID:      "seller-1",
		Quantity:      1,
		TotalPrice:    decimal.RequireFromString("30.00"),
		EscrowAmount:  decimal.RequireFromString("30.00"),
		Currency:      currency.USD,
		Status:        status,
		ReleaseStatus: release,
		CreatedAt:     fixedNow.Add(-24 * time.Hour),
		UpdatedAt:     fixedNow.Add(-24 * time.Hour),
	}
	m.orders[id] = o
	return o
}
