package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/parley/internal/domain"
	"github.com/nfrund/parley/internal/middleware"
)

// UserHandler serves the user directory used to start private chats.
type UserHandler struct {
	users domain.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users domain.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsers handles GET /api/users. It returns every registered identity,
// sorted lexicographically, with public profile fields only.
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.users.ListUsers(c.Request().Context())
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to list users", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Server error"})
	}

	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return c.JSON(http.StatusOK, out)
}
