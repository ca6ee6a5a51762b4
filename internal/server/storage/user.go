package storage

import (
	"context"

	"github.com/iudanet/shopauth/internal/models"
)

// UserStorage defines interface for account persistence
type UserStorage interface {
	// CreateUser creates a new account.
	// Returns ErrUsernameTaken or ErrEmailTaken on unique violations.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves account by username (case-insensitive).
	// Returns ErrUserNotFound if no account matches.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID retrieves account by ID.
	// Returns ErrUserNotFound if no account matches.
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// UsernameExists reports whether an account with this username exists
	// (case-insensitive)
	UsernameExists(ctx context.Context, username string) (bool, error)

	// EmailExists reports whether an account with this email exists
	// (case-insensitive)
	EmailExists(ctx context.Context, email string) (bool, error)
}
