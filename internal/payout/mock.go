package payout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sudo-init-do/gamemarket/internal/currency"
)

// MockProvider settles every transfer immediately. Used in development.
type MockProvider struct {
	// Fail makes every transfer report a failed status.
	Fail bool
}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (*MockProvider) Name() string { return "mock" }

func (m *MockProvider) Transfer(ctx context.Context, q Quote) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	id := "MOCK-" + uuid.New().String()
	if m.Fail {
		return Receipt{TransactionID: id, Status: StatusFailed, Message: "transfer failed, try again"}, nil
	}

	settled, _ := currency.Format(q.Converted, currency.Settlement)
	msg := fmt.Sprintf("transfer of %s sent to %s", settled, q.RecipientName)
	if q.Currency != currency.Settlement {
		original, _ := currency.Format(q.Amount, q.Currency)
		msg = fmt.Sprintf("transfer of %s (converted from %s) sent to %s", settled, original, q.RecipientName)
	}
	return Receipt{TransactionID: id, Status: StatusCompleted, Message: msg}, nil
}
