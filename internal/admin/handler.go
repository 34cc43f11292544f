package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gamemarket/internal/auth"
	"github.com/sudo-init-do/gamemarket/internal/metrics"
	mware "github.com/sudo-init-do/gamemarket/internal/middleware"
	"github.com/sudo-init-do/gamemarket/internal/payout"
	"github.com/sudo-init-do/gamemarket/internal/security"
	"github.com/sudo-init-do/gamemarket/internal/store"
)

// Store is the read side and bookkeeping used by the admin panel.
type Store interface {
	GetListing(ctx context.Context, id string) (security.Listing, error)
	GetOrder(ctx context.Context, id string) (*security.Order, error)
	ListLogs(ctx context.Context, f store.LogFilter) ([]security.Log, error)
	Stats(ctx context.Context) (store.Stats, error)
	ListUsers(ctx context.Context) ([]store.UserSummary, error)
	SetUserActive(ctx context.Context, id string, active bool) error
	SaveTransfer(ctx context.Context, t store.Transfer) error
	UpdateTransfer(ctx context.Context, t store.Transfer) error
	ListTransfers(ctx context.Context, limit int) ([]store.Transfer, error)
}

type PayoutNotifier interface {
	NotifyPayout(ctx context.Context, t store.Transfer) error
}

// Handler serves the /admin routes.
type Handler struct {
	Service  *Service
	Store    Store
	Payouts  *payout.Service
	Notifier PayoutNotifier
	Metrics  *metrics.SecurityMetrics
	Logger   *slog.Logger
}

// Register mounts the admin routes on a group that already authenticates
// staff. Security actions, payouts and account status changes also require
// the admin master.
func (h *Handler) Register(g *echo.Group) {
	master := mware.RequireRoles(auth.RoleAdminMaster)

	g.POST("/security/actions", h.ApplyAction, master)
	g.GET("/security/logs", h.ListLogs)
	g.GET("/listings/:id/security", h.ListingSecurity)
	g.GET("/orders/:id/payment", h.OrderPayment)

	g.GET("/payouts", h.ListPayouts)
	g.POST("/payouts", h.CreatePayout, master)

	g.GET("/stats", h.Stats)
	g.GET("/users", h.ListUsers)
	g.POST("/users/:id/suspend", h.SuspendUser, master)
	g.POST("/users/:id/activate", h.ActivateUser, master)
}

func actorFrom(c echo.Context) (auth.Actor, bool) {
	return auth.ActorFrom(c.Request().Context())
}

func (h *Handler) serverError(c echo.Context, msg string, err error) error {
	if h.Logger != nil {
		h.Logger.ErrorContext(c.Request().Context(), msg,
			"event", "admin_request_failed",
			"module", "admin",
			"layer", "http",
			"path", c.Path(),
			"error", err.Error(),
		)
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}
