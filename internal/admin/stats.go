package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GET /admin/stats
func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.Store.Stats(c.Request().Context())
	if err != nil {
		return h.serverError(c, "could not compute stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}
