package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/shopauth/internal/models"
	"github.com/iudanet/shopauth/internal/server/storage"
)

// CreateUser creates a new account
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, username, email, password_hash, address, phone, enabled, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Address,
		user.Phone,
		user.Enabled,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		// Map unique violations to sentinel errors. The username and email
		// indexes are declared COLLATE NOCASE, so the check is case-insensitive.
		if strings.Contains(err.Error(), "users.username") {
			return storage.ErrUsernameTaken
		}
		if strings.Contains(err.Error(), "users.email") {
			return storage.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

const userColumns = `id, name, username, email, password_hash, address, phone, enabled, role, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Address,
		&user.Phone,
		&user.Enabled,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUserByUsername retrieves account by username (case-insensitive)
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`

	return scanUser(s.db.QueryRowContext(ctx, query, username))
}

// GetUserByID retrieves account by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	return scanUser(s.db.QueryRowContext(ctx, query, userID))
}

// UsernameExists reports whether an account with this username exists
func (s *Storage) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM users WHERE username = ? LIMIT 1`, username)
}

// EmailExists reports whether an account with this email exists
func (s *Storage) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM users WHERE email = ? LIMIT 1`, email)
}

func (s *Storage) exists(ctx context.Context, query string, arg string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return true, nil
}
