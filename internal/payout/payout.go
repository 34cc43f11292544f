// Package payout sends settled escrow funds to a recipient through an
// injected transfer provider.
package payout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/gamemarket/internal/currency"
)

var (
	ErrInvalidAmount       = errors.New("invalid transfer amount")
	ErrIncompleteRecipient = errors.New("incomplete recipient data")
	ErrUnknownProvider     = errors.New("unknown payout provider")
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Request describes a transfer in the listing currency.
type Request struct {
	Reference         string            `json:"reference"`
	Amount            decimal.Decimal   `json:"amount"`
	Currency          currency.Code     `json:"currency"`
	RecipientName     string            `json:"recipient_name"`
	RecipientDocument string            `json:"recipient_document"`
	PixKey            string            `json:"pix_key"`
	Description       string            `json:"description,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Quote is a request already converted to the settlement currency.
type Quote struct {
	Request
	Converted decimal.Decimal
	Rate      decimal.Decimal
}

// Receipt is the provider's answer for a transfer.
type Receipt struct {
	TransactionID    string          `json:"transaction_id"`
	Provider         string          `json:"provider"`
	Status           Status          `json:"status"`
	Message          string          `json:"message"`
	Timestamp        time.Time       `json:"timestamp"`
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	OriginalCurrency currency.Code   `json:"original_currency"`
	ConvertedAmount  decimal.Decimal `json:"converted_amount"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
}

// Provider moves settlement-currency funds to a recipient.
type Provider interface {
	Name() string
	Transfer(ctx context.Context, q Quote) (Receipt, error)
}

// Service validates and converts transfers before handing them to a Provider.
type Service struct {
	provider Provider
	now      func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(provider Provider, opts ...Option) *Service {
	s := &Service{provider: provider, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ProviderName() string { return s.provider.Name() }

// Quote validates req and converts it to the settlement currency without
// sending anything.
func (s *Service) Quote(req Request) (Quote, error) {
	if !req.Amount.IsPositive() {
		return Quote{}, ErrInvalidAmount
	}
	if strings.TrimSpace(req.PixKey) == "" || strings.TrimSpace(req.RecipientName) == "" || strings.TrimSpace(req.RecipientDocument) == "" {
		return Quote{}, ErrIncompleteRecipient
	}
	rate, err := currency.Rate(req.Currency)
	if err != nil {
		return Quote{}, err
	}
	if req.Description == "" {
		req.Description = "transfer ref. " + req.Reference
	}
	return Quote{Request: req, Converted: req.Amount.Mul(rate), Rate: rate}, nil
}

// Send hands a quote to the provider.
func (s *Service) Send(ctx context.Context, q Quote) (Receipt, error) {
	receipt, err := s.provider.Transfer(ctx, q)
	if err != nil {
		return Receipt{}, fmt.Errorf("%s transfer: %w", s.provider.Name(), err)
	}
	receipt.Provider = s.provider.Name()
	receipt.OriginalAmount = q.Amount
	receipt.OriginalCurrency = q.Currency
	receipt.ConvertedAmount = q.Converted
	receipt.ExchangeRate = q.Rate
	if receipt.Timestamp.IsZero() {
		receipt.Timestamp = s.now().UTC()
	}
	return receipt, nil
}

// Transfer quotes and sends req.
func (s *Service) Transfer(ctx context.Context, req Request) (Receipt, error) {
	q, err := s.Quote(req)
	if err != nil {
		return Receipt{}, err
	}
	return s.Send(ctx, q)
}

// NewProvider resolves a configured provider name.
func NewProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
}
