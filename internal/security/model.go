package security

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/gamemarket/internal/currency"
)

// Listing is a sellable digital good. Its security fields are only changed
// through Validate + ApplyToListing.
type Listing struct {
	ID         string          `json:"id"`
	SellerID   string          `json:"seller_id"`
	Title      string          `json:"title"`
	Category   string          `json:"category"`
	Stock      int             `json:"stock"`
	Price      decimal.Decimal `json:"price"`
	Currency   currency.Code   `json:"currency"`
	Status     ListingStatus   `json:"status"`
	LockReason string          `json:"lock_reason,omitempty"`
	LockedBy   *string         `json:"locked_by,omitempty"`
	LockedAt   *time.Time      `json:"locked_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// SellerCanEdit is false while the listing is under an admin security state.
func (l Listing) SellerCanEdit() bool {
	return !l.Status.Locked()
}

// Purchasable reports whether checkout may sell this listing.
func (l Listing) Purchasable() bool {
	return l.Status == ListingActive && l.Stock > 0
}

// Order references exactly one listing. Commerce fields belong to checkout;
// the release fields belong to the security workflow.
type Order struct {
	ID            string          `json:"id"`
	ListingID     string          `json:"listing_id"`
	BuyerID       string          `json:"buyer_id"`
	SellerID      string          `json:"seller_id"`
	Quantity      int             `json:"quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	EscrowAmount  decimal.Decimal `json:"escrow_amount"`
	Currency      currency.Code   `json:"currency"`
	Status        OrderStatus     `json:"status"`
	ReleaseStatus ReleaseStatus   `json:"payment_release_status"`
	ReleasedAt    *time.Time      `json:"payment_released_at,omitempty"`
	ReleasedBy    *string         `json:"payment_released_by,omitempty"`
	ReleaseNotes  string          `json:"payment_release_notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ActionKind enumerates the commands an admin master can issue.
type ActionKind string

const (
	ActionLockForTransfer ActionKind = "lock_for_transfer"
	ActionConfirmTransfer ActionKind = "confirm_transfer"
	ActionBlock           ActionKind = "block"
	ActionReleasePayment  ActionKind = "release_payment"
	ActionRefundPayment   ActionKind = "refund_payment"
)

// ActionKinds lists every supported kind.
var ActionKinds = []ActionKind{
	ActionLockForTransfer,
	ActionConfirmTransfer,
	ActionBlock,
	ActionReleasePayment,
	ActionRefundPayment,
}

func (k ActionKind) Valid() bool {
	switch k {
	case ActionLockForTransfer, ActionConfirmTransfer, ActionBlock, ActionReleasePayment, ActionRefundPayment:
		return true
	default:
		return false
	}
}

// TargetsOrder reports whether the kind moves the payment machine rather than the listing one.
func (k ActionKind) TargetsOrder() bool {
	return k == ActionReleasePayment || k == ActionRefundPayment
}

// Action is a security command. The actor is supplied separately from the
// authenticated request, never from the command body.
type Action struct {
	ListingID string     `json:"listing_id"`
	OrderID   string     `json:"order_id,omitempty"`
	Kind      ActionKind `json:"action"`
	Reason    string     `json:"reason"`
	Notes     string     `json:"notes,omitempty"`
}

// Principal is the authenticated identity performing an action.
type Principal interface {
	ActorID() string
	DisplayName() string
	IsAdminMaster() bool
}

// AuditAction is the recorded type of a security log entry.
type AuditAction string

const (
	AuditAccountMarkedInTransfer  AuditAction = "account_marked_in_transfer"
	AuditAccountTransferConfirmed AuditAction = "account_transfer_confirmed"
	AuditAccountBlocked           AuditAction = "account_blocked"
	AuditAccountUnblocked         AuditAction = "account_unblocked"
	AuditPaymentReleased          AuditAction = "payment_released"
	AuditPaymentHeld              AuditAction = "payment_held"
	AuditPaymentRefunded          AuditAction = "payment_refunded"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditAccountMarkedInTransfer, AuditAccountTransferConfirmed, AuditAccountBlocked,
		AuditAccountUnblocked, AuditPaymentReleased, AuditPaymentHeld, AuditPaymentRefunded:
		return true
	default:
		return false
	}
}

// Log is an append-only audit record of one applied action.
type Log struct {
	ID              string            `json:"id"`
	ListingID       string            `json:"listing_id,omitempty"`
	OrderID         string            `json:"order_id,omitempty"`
	ActionType      AuditAction       `json:"action_type"`
	PerformedBy     string            `json:"performed_by"`
	PerformedByName string            `json:"performed_by_username"`
	Reason          string            `json:"reason"`
	Notes           string            `json:"notes,omitempty"`
	PreviousStatus  string            `json:"previous_status,omitempty"`
	NewStatus       string            `json:"new_status,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}
