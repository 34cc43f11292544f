package admin

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gamemarket/internal/security"
)

// POST /admin/security/actions
func (h *Handler) ApplyAction(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var action security.Action
	if err := c.Bind(&action); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	out, err := h.Service.Apply(c.Request().Context(), actor, action)
	if err != nil {
		if r, ok := security.AsRejection(err); ok {
			return c.JSON(rejectionStatus(r), echo.Map{"error": r.Err.Error(), "kind": r.Kind})
		}
		if errors.Is(err, ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed, retry"})
	}
	return c.JSON(http.StatusOK, out)
}

func rejectionStatus(r *security.Rejection) int {
	switch {
	case r.Kind == security.RejectAuthorization:
		return http.StatusForbidden
	case errors.Is(r.Err, security.ErrOrderNotFound):
		return http.StatusNotFound
	case r.Kind == security.RejectPrecondition:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
