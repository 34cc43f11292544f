package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sudo-init-do/gamemarket/internal/currency"
	"github.com/sudo-init-do/gamemarket/internal/logging"
	"github.com/sudo-init-do/gamemarket/internal/metrics"
	"github.com/sudo-init-do/gamemarket/internal/security"
	"github.com/sudo-init-do/gamemarket/internal/store"
)

// ErrListingNotFound is what Repository implementations return for an unknown listing.
var ErrListingNotFound = store.ErrListingNotFound

// Repository is the transactional storage the security service needs.
// GetOrderForUpdate returns a nil order when it does not exist.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetListingForUpdate(ctx context.Context, id string) (security.Listing, error)
	GetOrderForUpdate(ctx context.Context, id string) (*security.Order, error)
	SaveListing(ctx context.Context, l security.Listing) error
	SaveOrder(ctx context.Context, o security.Order) error
	AppendLog(ctx context.Context, l security.Log) error
}

// Notifier delivers staff alerts. Failures never undo an applied action.
type Notifier interface {
	NotifySecurityAction(ctx context.Context, l security.Log) error
}

// Outcome is the committed result of one security action.
type Outcome struct {
	Listing security.Listing `json:"listing"`
	Order   *security.Order  `json:"order,omitempty"`
	Log     security.Log     `json:"log"`
	Warning string           `json:"warning,omitempty"`
}

// Service applies admin-master security actions to listings and orders.
type Service struct {
	repo     Repository
	notifier Notifier
	metrics  *metrics.SecurityMetrics
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.SecurityMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, logger: logging.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply validates and applies action inside one transaction. The listing and
// order rows stay locked from read to commit, so concurrent actions on the
// same entity are serialized and each sees the committed result of the last.
//
// Validation failures are returned as *security.Rejection and leave no trace
// in storage. Any other error means nothing was committed.
func (s *Service) Apply(ctx context.Context, actor security.Principal, action security.Action) (Outcome, error) {
	start := s.now()
	action.ListingID = strings.TrimSpace(action.ListingID)
	action.OrderID = strings.TrimSpace(action.OrderID)

	out, err := s.apply(ctx, actor, action)
	elapsed := s.now().Sub(start)

	if err != nil {
		if r, ok := security.AsRejection(err); ok {
			s.metrics.ObserveAction(string(action.Kind), metrics.OutcomeRejected, elapsed)
			s.logger.InfoContext(ctx, "security action rejected",
				"event", "security_action_rejected",
				"module", "admin",
				"layer", "service",
				"kind", action.Kind,
				"listing_id", action.ListingID,
				"order_id", action.OrderID,
				"rejection", r.Kind,
				"error", r.Err.Error(),
			)
			return Outcome{}, err
		}
		s.metrics.ObserveAction(string(action.Kind), metrics.OutcomeFailed, elapsed)
		s.logger.ErrorContext(ctx, "security action failed",
			"event", "security_action_failed",
			"module", "admin",
			"layer", "service",
			"kind", action.Kind,
			"listing_id", action.ListingID,
			"error", err.Error(),
		)
		return Outcome{}, err
	}

	outcome := metrics.OutcomeApplied
	if out.Warning != "" {
		outcome = metrics.OutcomeWarned
	}
	s.metrics.ObserveAction(string(action.Kind), outcome, elapsed)
	s.logger.InfoContext(ctx, "security action applied",
		"event", "security_action_applied",
		"module", "admin",
		"layer", "service",
		"kind", action.Kind,
		"action_type", out.Log.ActionType,
		"log_id", out.Log.ID,
		"listing_id", action.ListingID,
		"order_id", action.OrderID,
		"performed_by", out.Log.PerformedBy,
		"previous_status", out.Log.PreviousStatus,
		"new_status", out.Log.NewStatus,
		"warning", out.Warning,
	)

	if s.notifier != nil {
		if err := s.notifier.NotifySecurityAction(ctx, out.Log); err != nil {
			s.metrics.ObserveAlertFailure("alert:security_action")
			s.logger.WarnContext(ctx, "security alert not enqueued",
				"event", "security_alert_failed",
				"module", "admin",
				"log_id", out.Log.ID,
				"error", err.Error(),
			)
		}
	}
	return out, nil
}

func (s *Service) apply(ctx context.Context, actor security.Principal, action security.Action) (Outcome, error) {
	if actor == nil || !actor.IsAdminMaster() {
		return Outcome{}, &security.Rejection{Kind: security.RejectAuthorization, Err: security.ErrNotAdminMaster}
	}
	if action.ListingID == "" {
		return Outcome{}, &security.Rejection{Kind: security.RejectInput, Err: security.ErrListingRequired}
	}
	if !action.Kind.Valid() {
		return Outcome{}, &security.Rejection{Kind: security.RejectInput, Err: security.ErrUnknownAction}
	}

	var out Outcome
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		listing, err := s.repo.GetListingForUpdate(txCtx, action.ListingID)
		if err != nil {
			return err
		}
		var order *security.Order
		if action.OrderID != "" {
			if order, err = s.repo.GetOrderForUpdate(txCtx, action.OrderID); err != nil {
				return err
			}
		}

		verdict, err := security.Validate(actor, action, listing, order)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		var previous, next string
		if action.Kind.TargetsOrder() {
			previous = string(order.ReleaseStatus)
			updated := security.ApplyToOrder(*order, action, actor.ActorID(), now)
			if err := s.repo.SaveOrder(txCtx, updated); err != nil {
				return err
			}
			next = string(updated.ReleaseStatus)
			out.Listing, out.Order = listing, &updated
		} else {
			previous = string(listing.Status)
			updated := security.ApplyToListing(listing, action, actor.ActorID(), now)
			if err := s.repo.SaveListing(txCtx, updated); err != nil {
				return err
			}
			next = string(updated.Status)
			out.Listing, out.Order = updated, order
		}

		entry := security.NewLog(actor, action, previous, next, now, logMetadata(verdict, order))
		if err := s.repo.AppendLog(txCtx, entry); err != nil {
			return err
		}
		out.Log = entry
		out.Warning = verdict.Warning
		return nil
	})
	if err != nil {
		if _, ok := security.AsRejection(err); ok {
			return Outcome{}, err
		}
		return Outcome{}, fmt.Errorf("apply %s: %w", action.Kind, err)
	}
	return out, nil
}

// logMetadata adds the warning and the escrowed amount, in the order currency
// and in the settlement currency, to the audit entry.
func logMetadata(verdict security.Verdict, order *security.Order) map[string]string {
	extra := map[string]string{}
	if verdict.Warning != "" {
		extra["warning"] = verdict.Warning
	}
	if order == nil {
		return extra
	}
	if formatted, err := currency.Format(order.EscrowAmount, order.Currency); err == nil {
		extra["amount"] = formatted
	}
	if converted, err := currency.Convert(order.EscrowAmount, order.Currency); err == nil {
		if formatted, err := currency.Format(converted, currency.Settlement); err == nil {
			extra["amount_settlement"] = formatted
		}
	}
	return extra
}
