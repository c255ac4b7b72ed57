package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/parley/internal/domain"
)

const UserContextKey = "user"

// Auth creates a middleware that protects routes requiring a verified
// identity. The session token is taken from the Authorization header, the
// auth_token cookie, or the token query parameter (browser WebSocket clients
// cannot set headers). A missing or invalid token is refused with 401 before
// the handler runs.
func Auth(users domain.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			user, err := users.Authenticate(c.Request().Context(), token)
			if err != nil || user == nil || strings.TrimSpace(user.Username) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}

func extractToken(c echo.Context) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie("auth_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return c.QueryParam("token")
}
