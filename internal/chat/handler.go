package chat

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/parley/internal/domain"
	"github.com/nfrund/parley/internal/middleware"
)

// Handler returns an echo.HandlerFunc that upgrades an authenticated request
// to a WebSocket connection and admits it to the coordinator. Admission is
// refused with 401 before any session exists when the verified identity is
// missing or empty.
func (c *Coordinator) Handler() echo.HandlerFunc {
	return func(ec echo.Context) error {
		user, ok := ec.Get(middleware.UserContextKey).(*domain.User)
		if !ok || user == nil {
			slog.Error("Coordinator.Handler: no user in context for WebSocket connection")
			return ec.String(http.StatusUnauthorized, "User not authenticated")
		}

		username := strings.TrimSpace(user.Username)
		if username == "" {
			return ec.String(http.StatusUnauthorized, "User not authenticated")
		}

		conn, err := websocket.Accept(ec.Response(), ec.Request(), &websocket.AcceptOptions{
			// In production, check the origin to prevent CSRF.
			InsecureSkipVerify: true,
		})
		if err != nil {
			slog.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}

		s := c.Admit(conn, username)
		go s.writePump()
		go s.readPump()

		return nil
	}
}
