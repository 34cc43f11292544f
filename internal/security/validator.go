package security

import (
	"strings"
	"unicode/utf8"
)

// MinReasonLength is the minimum trimmed length of an action reason.
const MinReasonLength = 10

// Verdict is the outcome of a successful validation.
type Verdict struct {
	// Warning is set when the action may proceed but the operator should be told something.
	Warning string `json:"warning,omitempty"`
}

// Validate decides whether actor may apply action to listing (and order, for
// payment kinds). It has no side effects. A nil error means the action is
// valid; rejections are returned as *Rejection.
//
// Authorization is checked first and the reason length last, so that
// action-specific failures take priority over the generic reason error.
func Validate(actor Principal, action Action, listing Listing, order *Order) (Verdict, error) {
	if actor == nil || !actor.IsAdminMaster() {
		return Verdict{}, reject(RejectAuthorization, ErrNotAdminMaster)
	}

	var verdict Verdict
	switch action.Kind {
	case ActionLockForTransfer:
		if err := checkLock(listing); err != nil {
			return Verdict{}, err
		}
	case ActionConfirmTransfer:
		if listing.Status != ListingInTransferSecurity {
			return Verdict{}, reject(RejectPrecondition, ErrListingNotInTransfer)
		}
	case ActionBlock:
		if listing.Status == ListingBlockedSecurity {
			return Verdict{}, reject(RejectPrecondition, ErrListingAlreadyBlocked)
		}
	case ActionReleasePayment:
		if err := checkOrderTarget(listing, order); err != nil {
			return Verdict{}, err
		}
		warning, err := checkRelease(*order, listing)
		if err != nil {
			return Verdict{}, err
		}
		verdict.Warning = warning
	case ActionRefundPayment:
		if err := checkOrderTarget(listing, order); err != nil {
			return Verdict{}, err
		}
		if err := checkRefund(*order); err != nil {
			return Verdict{}, err
		}
	default:
		return Verdict{}, reject(RejectInput, ErrUnknownAction)
	}

	// a listing action may name the order that triggered it; it must exist and match
	if !action.Kind.TargetsOrder() && action.OrderID != "" {
		if err := checkOrderTarget(listing, order); err != nil {
			return Verdict{}, err
		}
	}

	if !ReasonLongEnough(action.Reason) {
		return Verdict{}, reject(RejectInput, ErrReasonTooShort)
	}
	return verdict, nil
}

// ReasonLongEnough reports whether reason has at least MinReasonLength
// characters once surrounding whitespace is removed.
func ReasonLongEnough(reason string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(reason)) >= MinReasonLength
}

func checkLock(listing Listing) error {
	if listing.Status != ListingActive && listing.Status != ListingPaused {
		return reject(RejectPrecondition, ErrListingNotLockable)
	}
	if listing.Stock <= 0 {
		return reject(RejectPrecondition, ErrListingOutOfStock)
	}
	return nil
}

func checkOrderTarget(listing Listing, order *Order) error {
	if order == nil {
		return reject(RejectPrecondition, ErrOrderNotFound)
	}
	if order.ListingID != listing.ID {
		return reject(RejectInput, ErrOrderListingMismatch)
	}
	return nil
}

// checkRelease returns a warning, not an error, when the listing transfer is
// unconfirmed. Terminal release states are reported before the order status,
// since a settled order is always completed or refunded.
func checkRelease(order Order, listing Listing) (string, error) {
	if order.ReleaseStatus == ReleaseReleased {
		return "", reject(RejectPrecondition, ErrAlreadyReleased)
	}
	if order.ReleaseStatus == ReleaseRefunded {
		return "", reject(RejectPrecondition, ErrAlreadyRefunded)
	}
	if order.Status != OrderPaid && order.Status != OrderDelivered {
		return "", reject(RejectPrecondition, ErrOrderNotReleasable)
	}
	if listing.Status != ListingTransferredConfirmed {
		return WarnTransferNotConfirmed, nil
	}
	return "", nil
}

func checkRefund(order Order) error {
	if order.ReleaseStatus == ReleaseReleased {
		return reject(RejectPrecondition, ErrReleasedToSeller)
	}
	if order.ReleaseStatus == ReleaseRefunded {
		return reject(RejectPrecondition, ErrAlreadyRefunded)
	}
	return nil
}

// AvailableActions lists the kinds whose state preconditions pass for the
// given listing and optional order. Reason and authorization are not considered.
func AvailableActions(listing Listing, order *Order) []ActionKind {
	var kinds []ActionKind
	if checkLock(listing) == nil {
		kinds = append(kinds, ActionLockForTransfer)
	}
	if listing.Status == ListingInTransferSecurity {
		kinds = append(kinds, ActionConfirmTransfer)
	}
	if listing.Status != ListingBlockedSecurity {
		kinds = append(kinds, ActionBlock)
	}
	if checkOrderTarget(listing, order) == nil {
		if _, err := checkRelease(*order, listing); err == nil {
			kinds = append(kinds, ActionReleasePayment)
		}
		if checkRefund(*order) == nil {
			kinds = append(kinds, ActionRefundPayment)
		}
	}
	return kinds
}
