package admin

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gamemarket/internal/auth"
	"github.com/sudo-init-do/gamemarket/internal/store"
)

// GET /admin/users
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.Store.ListUsers(c.Request().Context())
	if err != nil {
		return h.serverError(c, "could not fetch users", err)
	}
	if users == nil {
		users = []store.UserSummary{}
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// POST /admin/users/:id/suspend
func (h *Handler) SuspendUser(c echo.Context) error {
	return h.setActive(c, false, "user suspended")
}

// POST /admin/users/:id/activate
func (h *Handler) ActivateUser(c echo.Context) error {
	return h.setActive(c, true, "user activated")
}

func (h *Handler) setActive(c echo.Context, active bool, message string) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user id required"})
	}
	if actor, ok := actorFrom(c); ok && actor.ID == userID && !active {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot suspend yourself"})
	}
	if err := h.Store.SetUserActive(c.Request().Context(), userID, active); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return h.serverError(c, "failed to update user", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": message, "user_id": userID})
}
