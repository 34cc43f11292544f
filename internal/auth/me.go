package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Me returns the authenticated actor.
func Me(c echo.Context) error {
	actor, ok := ActorFrom(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, actor)
}
