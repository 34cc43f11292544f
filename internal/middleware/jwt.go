package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gamemarket/internal/auth"
)

// JWTMiddleware authenticates the Bearer token, reloads the account it names
// and stores the resulting actor on the request context. user_id and role are
// also set on the echo context. The role always comes from users, never from
// the token alone, so demotions and suspensions apply immediately.
func JWTMiddleware(tokens *auth.Tokens, users auth.ActorStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			const prefix = "Bearer "
			if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing or invalid Authorization header"})
			}

			claimed, err := tokens.Parse(header[len(prefix):])
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			ctx := c.Request().Context()
			actor, err := auth.ResolveActor(ctx, users, claimed)
			switch {
			case errors.Is(err, auth.ErrAccountSuspended):
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account suspended"})
			case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidToken):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			case err != nil:
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not verify account"})
			}

			c.Set("user_id", actor.ID)
			c.Set("role", string(actor.Role))
			c.SetRequest(c.Request().WithContext(auth.WithActor(ctx, actor)))
			return next(c)
		}
	}
}
