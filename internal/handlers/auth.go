package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/parley/internal/domain"
	"github.com/nfrund/parley/internal/middleware"
)

// AuthHandler handles account creation and login.
type AuthHandler struct {
	users domain.UserRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users domain.UserRepository) *AuthHandler {
	return &AuthHandler{users: users}
}

// SignupPost handles POST /api/auth/signup.
func (h *AuthHandler) SignupPost(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Malformed request body."})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "All fields are required."})
	}

	user := &domain.User{
		Username:  req.Username,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
	}

	token, err := h.users.SignUp(c.Request().Context(), user, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return c.JSON(http.StatusConflict, ErrorResponse{Message: "Username already exists."})
		}
		middleware.FromContext(c.Request().Context()).Error("Error creating user", "username", req.Username, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Could not create your account."})
	}

	return c.JSON(http.StatusCreated, AuthResponse{
		Message: "Signup successful",
		Token:   token,
		User:    NewUserResponse(user),
	})
}

// LoginPost handles POST /api/auth/login.
func (h *AuthHandler) LoginPost(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Malformed request body."})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Missing credentials."})
	}

	user := &domain.User{Username: req.Username}
	token, err := h.users.SignIn(c.Request().Context(), user, req.Password)
	if err != nil {
		middleware.FromContext(c.Request().Context()).Warn("Failed login attempt", "username", req.Username)
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid username or password."})
	}

	// Fetch the profile so clients get display names along with the token.
	profile, err := h.users.FindUserByUsername(c.Request().Context(), req.Username)
	if err != nil || profile == nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to load profile after login", "username", req.Username, "error", err)
		profile = user
	}

	setAuthCookie(c, token)

	return c.JSON(http.StatusOK, AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    NewUserResponse(profile),
	})
}

// setAuthCookie stores the session token so browser clients can open the
// WebSocket without carrying the token in JavaScript.
func setAuthCookie(c echo.Context, token string) {
	maxAge := 86400 * 7
	if token == "" {
		maxAge = -1
	}
	c.SetCookie(&http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	})
}
