package security

import "errors"

var (
	ErrNotAdminMaster = errors.New("only the admin master may perform security actions")

	ErrListingNotLockable    = errors.New("listing not available for locking")
	ErrListingOutOfStock     = errors.New("listing out of stock")
	ErrListingNotInTransfer  = errors.New("listing not in transfer process")
	ErrListingAlreadyBlocked = errors.New("listing already blocked")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderNotReleasable    = errors.New("order not in a valid state for release")
	ErrAlreadyReleased       = errors.New("payment already released")
	ErrAlreadyRefunded       = errors.New("payment already refunded")
	ErrReleasedToSeller      = errors.New("payment already released to seller")

	ErrReasonTooShort       = errors.New("reason must be at least 10 characters")
	ErrUnknownAction        = errors.New("unknown security action")
	ErrListingRequired      = errors.New("listing id required")
	ErrOrderListingMismatch = errors.New("order does not belong to listing")
)

// WarnTransferNotConfirmed is returned alongside a valid release when the
// listing has not reached TransferredConfirmed.
const WarnTransferNotConfirmed = "account not yet confirmed as transferred"

// RejectionKind groups rejections for callers that map them to responses.
type RejectionKind string

const (
	RejectAuthorization RejectionKind = "authorization"
	RejectPrecondition  RejectionKind = "precondition"
	RejectInput         RejectionKind = "input"
)

// Rejection is an expected refusal of an action. No state was changed.
type Rejection struct {
	Kind RejectionKind
	Err  error
}

func (r *Rejection) Error() string { return r.Err.Error() }

func (r *Rejection) Unwrap() error { return r.Err }

func reject(kind RejectionKind, err error) *Rejection {
	return &Rejection{Kind: kind, Err: err}
}

// AsRejection returns the rejection carried by err, if any.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
