package security

import (
	"time"

	"github.com/google/uuid"
)

// AuditActionFor maps an action kind to the audit type it records.
// account_unblocked and payment_held have no producing action.
func AuditActionFor(kind ActionKind) (AuditAction, bool) {
	switch kind {
	case ActionLockForTransfer:
		return AuditAccountMarkedInTransfer, true
	case ActionConfirmTransfer:
		return AuditAccountTransferConfirmed, true
	case ActionBlock:
		return AuditAccountBlocked, true
	case ActionReleasePayment:
		return AuditPaymentReleased, true
	case ActionRefundPayment:
		return AuditPaymentRefunded, true
	default:
		return "", false
	}
}

// NewLog builds the audit entry for a validated action. previous and next are
// the state labels immediately before and after the change. extra is merged
// into the metadata after the standard keys.
func NewLog(actor Principal, action Action, previous, next string, now time.Time, extra map[string]string) Log {
	actionType, _ := AuditActionFor(action.Kind)

	metadata := map[string]string{
		"action":    string(action.Kind),
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		metadata[k] = v
	}

	return Log{
		ID:              uuid.New().String(),
		ListingID:       action.ListingID,
		OrderID:         action.OrderID,
		ActionType:      actionType,
		PerformedBy:     actor.ActorID(),
		PerformedByName: actor.DisplayName(),
		Reason:          action.Reason,
		Notes:           action.Notes,
		PreviousStatus:  previous,
		NewStatus:       next,
		CreatedAt:       now,
		Metadata:        metadata,
	}
}
