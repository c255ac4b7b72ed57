package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nfrund/parley/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

// SurrealUserStore encapsulates account operations using SurrealDB record
// access. Credential hashing and token issuance are handled by the database,
// which is the authentication boundary the rest of the system trusts.
type SurrealUserStore struct {
	db     *surrealdb.DB
	ns     string
	dbName string
}

// NewSurrealUserStore creates a new SurrealUserStore.
func NewSurrealUserStore(db *surrealdb.DB, ns, dbName string) *SurrealUserStore {
	return &SurrealUserStore{db: db, ns: ns, dbName: dbName}
}

// SignUp creates the account record and returns a session token.
func (s *SurrealUserStore) SignUp(ctx context.Context, user *domain.User, password string) (string, error) {
	token, err := s.db.SignUp(ctx, map[string]interface{}{
		"ns":        s.ns,
		"db":        s.dbName,
		"ac":        "account",
		"username":  strings.TrimSpace(user.Username),
		"firstname": strings.TrimSpace(user.Firstname),
		"lastname":  strings.TrimSpace(user.Lastname),
		"password":  password,
	})

	// The driver reports a username collision as a plain error string.
	if err != nil && strings.Contains(err.Error(), "already exists") {
		return "", domain.ErrUserAlreadyExists
	}

	if err == nil && token != "" {
		slog.Info("Successfully signed up user", "username", user.Username)
	}

	return token, err
}

// SignIn verifies credentials against the account access method and returns
// a session token.
func (s *SurrealUserStore) SignIn(ctx context.Context, user *domain.User, password string) (string, error) {
	token, err := s.db.SignIn(ctx, map[string]interface{}{
		"ns":       s.ns,
		"db":       s.dbName,
		"ac":       "account",
		"username": strings.TrimSpace(user.Username),
		"password": password,
	})
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}

	slog.Info("Successfully signed in user", "username", user.Username)
	return token, nil
}

// Authenticate validates a session token and returns the associated user.
func (s *SurrealUserStore) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if err := s.db.Authenticate(ctx, token); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	users, err := Query[domain.User](ctx, s.db, "SELECT * FROM $auth", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated user: %w", err)
	}
	if len(users) == 0 || users[0].ID == nil {
		return nil, domain.ErrInvalidCredentials
	}

	user := &users[0]
	user.Password = ""
	return user, nil
}

// FindUserByUsername queries for a single user by username.
func (s *SurrealUserStore) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	query := "SELECT * FROM user WHERE username = $username"
	params := map[string]any{"username": strings.TrimSpace(username)}

	user, err := QueryOne[domain.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if user != nil {
		user.Password = ""
	}
	return user, nil
}

// ListUsers returns every registered user sorted by username, public profile
// fields only.
func (s *SurrealUserStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	query := "SELECT username, firstname, lastname FROM user ORDER BY username ASC"
	users, err := Query[domain.User](ctx, s.db, query, nil)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return users, nil
}
