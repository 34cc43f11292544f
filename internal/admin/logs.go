package admin

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gamemarket/internal/security"
	"github.com/sudo-init-do/gamemarket/internal/store"
)

// GET /admin/security/logs?listing_id=&order_id=&action_type=&limit=
func (h *Handler) ListLogs(c echo.Context) error {
	f := store.LogFilter{
		ListingID:  c.QueryParam("listing_id"),
		OrderID:    c.QueryParam("order_id"),
		ActionType: security.AuditAction(c.QueryParam("action_type")),
	}
	if f.ActionType != "" && !f.ActionType.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown action_type"})
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		f.Limit = n
	}

	logs, err := h.Store.ListLogs(c.Request().Context(), f)
	if err != nil {
		return h.serverError(c, "could not fetch security logs", err)
	}
	if logs == nil {
		logs = []security.Log{}
	}
	return c.JSON(http.StatusOK, echo.Map{"logs": logs})
}
