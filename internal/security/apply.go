package security

import "time"

// ApplyToListing returns listing with the effects of a validated listing action.
// Payment kinds only refresh UpdatedAt.
func ApplyToListing(listing Listing, action Action, actorID string, now time.Time) Listing {
	next := listing
	switch action.Kind {
	case ActionLockForTransfer:
		next.Status = ListingInTransferSecurity
		next.LockReason = action.Reason
		next.LockedBy = &actorID
		next.LockedAt = &now
	case ActionConfirmTransfer:
		// lock actor and timestamp stay from the original lock
		next.Status = ListingTransferredConfirmed
		next.LockReason = action.Reason
	case ActionBlock:
		next.Status = ListingBlockedSecurity
		next.LockReason = action.Reason
		next.LockedBy = &actorID
		next.LockedAt = &now
	}
	next.UpdatedAt = now
	return next
}

// ApplyToOrder returns order with the effects of a validated payment action.
func ApplyToOrder(order Order, action Action, actorID string, now time.Time) Order {
	next := order
	switch action.Kind {
	case ActionReleasePayment:
		next.ReleaseStatus = ReleaseReleased
		next.Status = OrderCompleted
	case ActionRefundPayment:
		next.ReleaseStatus = ReleaseRefunded
		next.Status = OrderRefunded
	default:
		return order
	}
	next.ReleasedAt = &now
	next.ReleasedBy = &actorID
	next.ReleaseNotes = action.Reason
	next.UpdatedAt = now
	return next
}
