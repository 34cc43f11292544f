package alerts

import (
	"time"

	"github.com/sudo-init-do/gamemarket/internal/security"
)

// Task type constants
const (
	TaskSecurityAction = "alert:security_action"
	TaskPayoutTransfer = "alert:payout_transfer"
)

const QueueAlerts = "alerts"

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SecurityAlertPayload is sent to staff after a security action is applied.
type SecurityAlertPayload struct {
	LogID           string               `json:"log_id"`
	ActionType      security.AuditAction `json:"action_type"`
	ListingID       string               `json:"listing_id,omitempty"`
	OrderID         string               `json:"order_id,omitempty"`
	PerformedBy     string               `json:"performed_by"`
	PerformedByName string               `json:"performed_by_username"`
	Reason          string               `json:"reason"`
	PreviousStatus  string               `json:"previous_status,omitempty"`
	NewStatus       string               `json:"new_status,omitempty"`
	Warning         string               `json:"warning,omitempty"`
	Severity        Severity             `json:"severity"`
	SentAt          time.Time            `json:"sent_at"`
}

// PayoutAlertPayload reports a payout transfer attempt.
type PayoutAlertPayload struct {
	TransferID  string    `json:"transfer_id"`
	Reference   string    `json:"reference"`
	Provider    string    `json:"provider"`
	Status      string    `json:"status"`
	Amount      string    `json:"amount"`
	RequestedBy string    `json:"requested_by"`
	Severity    Severity  `json:"severity"`
	SentAt      time.Time `json:"sent_at"`
}

// SeverityFor grades an audit entry. Blocks and refunds always page staff;
// anything applied over a warning is flagged.
func SeverityFor(l security.Log) Severity {
	switch {
	case l.ActionType == security.AuditAccountBlocked, l.ActionType == security.AuditPaymentRefunded:
		return SeverityCritical
	case l.Metadata["warning"] != "":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
