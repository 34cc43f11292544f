package security

// ListingStatus is the commerce + security state of a listing.
type ListingStatus string

const (
	ListingActive               ListingStatus = "active"
	ListingPaused               ListingStatus = "paused"
	ListingInTransferSecurity   ListingStatus = "in_transfer_security"
	ListingTransferredConfirmed ListingStatus = "transferred_confirmed"
	ListingBlockedSecurity      ListingStatus = "blocked_security"
	ListingCancelled            ListingStatus = "cancelled"
	ListingRemoved              ListingStatus = "removed"
)

// ListingStatuses lists every listing state in display order.
var ListingStatuses = []ListingStatus{
	ListingActive,
	ListingPaused,
	ListingInTransferSecurity,
	ListingTransferredConfirmed,
	ListingBlockedSecurity,
	ListingCancelled,
	ListingRemoved,
}

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingActive, ListingPaused, ListingInTransferSecurity, ListingTransferredConfirmed,
		ListingBlockedSecurity, ListingCancelled, ListingRemoved:
		return true
	default:
		return false
	}
}

// Locked reports whether the status is one of the admin-controlled security states.
func (s ListingStatus) Locked() bool {
	switch s {
	case ListingInTransferSecurity, ListingTransferredConfirmed, ListingBlockedSecurity:
		return true
	default:
		return false
	}
}

// OrderStatus is the commerce lifecycle of an order, owned by checkout.
type OrderStatus string

const (
	OrderPendingPayment OrderStatus = "pending_payment"
	OrderPaid           OrderStatus = "paid"
	OrderInProgress     OrderStatus = "in_progress"
	OrderDelivered      OrderStatus = "delivered"
	OrderCompleted      OrderStatus = "completed"
	OrderDisputed       OrderStatus = "disputed"
	OrderCancelled      OrderStatus = "cancelled"
	OrderRefunded       OrderStatus = "refunded"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPendingPayment, OrderPaid, OrderInProgress, OrderDelivered,
		OrderCompleted, OrderDisputed, OrderCancelled, OrderRefunded:
		return true
	default:
		return false
	}
}

// ReleaseStatus tracks escrowed funds independently of OrderStatus.
type ReleaseStatus string

const (
	ReleaseHeld                ReleaseStatus = "held"
	ReleasePendingVerification ReleaseStatus = "pending_verification"
	ReleaseApprovedForRelease  ReleaseStatus = "approved_for_release"
	ReleaseReleased            ReleaseStatus = "released"
	ReleaseRefunded            ReleaseStatus = "refunded"
)

// ReleaseStatuses lists every release state in lifecycle order.
var ReleaseStatuses = []ReleaseStatus{
	ReleaseHeld,
	ReleasePendingVerification,
	ReleaseApprovedForRelease,
	ReleaseReleased,
	ReleaseRefunded,
}

func (s ReleaseStatus) Valid() bool {
	switch s {
	case ReleaseHeld, ReleasePendingVerification, ReleaseApprovedForRelease, ReleaseReleased, ReleaseRefunded:
		return true
	default:
		return false
	}
}

// Terminal reports whether funds have already left escrow.
func (s ReleaseStatus) Terminal() bool {
	return s == ReleaseReleased || s == ReleaseRefunded
}

// Tone classifies a status note for display.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneInfo    Tone = "info"
	ToneWarning Tone = "warning"
	ToneError   Tone = "error"
)

// StatusNote is an operator-facing description of a state.
type StatusNote struct {
	Message string `json:"message"`
	Tone    Tone   `json:"tone"`
}

func (s ListingStatus) Describe() StatusNote {
	switch s {
	case ListingActive:
		return StatusNote{Message: "listing available for purchase", Tone: ToneSuccess}
	case ListingPaused:
		return StatusNote{Message: "listing paused by seller", Tone: ToneInfo}
	case ListingInTransferSecurity:
		return StatusNote{Message: "account transfer in progress (security lock)", Tone: ToneWarning}
	case ListingTransferredConfirmed:
		return StatusNote{Message: "transfer confirmed by administrator", Tone: ToneSuccess}
	case ListingBlockedSecurity:
		return StatusNote{Message: "listing blocked for security", Tone: ToneError}
	case ListingCancelled:
		return StatusNote{Message: "listing cancelled", Tone: ToneInfo}
	case ListingRemoved:
		return StatusNote{Message: "listing removed", Tone: ToneInfo}
	default:
		return StatusNote{Message: "unknown status", Tone: ToneInfo}
	}
}

func (s ReleaseStatus) Describe() StatusNote {
	switch s {
	case ReleaseHeld:
		return StatusNote{Message: "payment held in escrow", Tone: ToneInfo}
	case ReleasePendingVerification:
		return StatusNote{Message: "awaiting administrator verification", Tone: ToneWarning}
	case ReleaseApprovedForRelease:
		return StatusNote{Message: "payment approved for release", Tone: ToneSuccess}
	case ReleaseReleased:
		return StatusNote{Message: "payment released to seller", Tone: ToneSuccess}
	case ReleaseRefunded:
		return StatusNote{Message: "payment refunded to buyer", Tone: ToneInfo}
	default:
		return StatusNote{Message: "unknown status", Tone: ToneInfo}
	}
}
