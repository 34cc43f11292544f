package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gamemarket/internal/auth"
)

// AdminGuard lets staff (admin or admin master) through. It must run after
// JWTMiddleware.
func AdminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, ok := auth.ActorFrom(c.Request().Context())
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
		}
		if !actor.Role.IsStaff() {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access only"})
		}
		return next(c)
	}
}
