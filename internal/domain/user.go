package domain

import (
	"context"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// User represents a registered identity. The username is the sole key used
// for presence tracking and message attribution; uniqueness is enforced by
// the user store.
type User struct {
	ID        *surrealmodels.RecordID `json:"id,omitempty"`
	Username  string                  `json:"username"`
	Firstname string                  `json:"firstname"`
	Lastname  string                  `json:"lastname"`
	Password  string                  `json:"password,omitempty"`
}

// UserRepository defines the contract for the authentication boundary.
// It lives in the domain because it's a requirement OF the domain, not
// of the database implementation.
type UserRepository interface {
	// SignUp creates a new account and returns a session token.
	SignUp(ctx context.Context, user *User, password string) (string, error)
	// SignIn verifies credentials and returns a session token.
	SignIn(ctx context.Context, user *User, password string) (string, error)
	// Authenticate validates a session token and returns the verified user.
	Authenticate(ctx context.Context, token string) (*User, error)
	// FindUserByUsername returns the user with the given username, or nil.
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	// ListUsers returns every registered user, sorted by username, with
	// public profile fields only.
	ListUsers(ctx context.Context) ([]User, error)
}
