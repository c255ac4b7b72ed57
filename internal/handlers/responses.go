package handlers

import (
	"github.com/nfrund/parley/internal/domain"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Message string `json:"message"`
}

// UserResponse is the public profile DTO: never includes secrets.
type UserResponse struct {
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// NewUserResponse creates a UserResponse DTO from a domain.User.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		Username:  user.Username,
		Firstname: user.Firstname,
		Lastname:  user.Lastname,
	}
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token,omitempty"`
	User    UserResponse `json:"user"`
}
