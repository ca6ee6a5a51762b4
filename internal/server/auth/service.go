// Package auth implements the authentication use cases: registration,
// login, refresh and logout. Per session the flow is
// Anonymous -> Authenticated -> Refreshed (any number of times) -> Revoked.
// Logout is global: it revokes every outstanding refresh record for the
// account, not just the one presented.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/shopauth/internal/models"
	"github.com/iudanet/shopauth/internal/server/password"
	"github.com/iudanet/shopauth/internal/server/storage"
	"github.com/iudanet/shopauth/internal/server/token"
)

// Use case errors
var (
	// ErrPasswordMismatch indicates password and confirmation differ
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrInvalidCredentials indicates a failed credential check. Unknown
	// username and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountDisabled indicates the account's enabled flag is false
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrTokenRevoked indicates the refresh token was revoked by logout
	ErrTokenRevoked = errors.New("refresh token has been revoked")

	// ErrTokenExpired indicates the refresh token is past its expiry
	ErrTokenExpired = errors.New("refresh token has expired")
)

// RegisterParams carries the registration input after transport decoding.
type RegisterParams struct {
	Name            string
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	Address         string
	Phone           string
}

// Session is the result of a successful register, login or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // access token lifetime in milliseconds
	Account      *models.User
}

// Service composes the token codec, the refresh token ledger, the account
// store and the password hasher. Side effects are confined to the store
// and the ledger.
type Service struct {
	logger *slog.Logger
	users  storage.UserStorage
	tokens storage.TokenStorage
	codec  *token.Service
	hasher *password.Hasher
	now    func() time.Time
}

// NewService creates the auth service.
func NewService(logger *slog.Logger, users storage.UserStorage, tokens storage.TokenStorage, codec *token.Service, hasher *password.Hasher) *Service {
	return &Service{
		logger: logger,
		users:  users,
		tokens: tokens,
		codec:  codec,
		hasher: hasher,
		now:    time.Now,
	}
}

// Register creates a new account and opens its first session.
// Returns ErrPasswordMismatch, storage.ErrUsernameTaken or
// storage.ErrEmailTaken on the documented failure modes; the plaintext
// password is never stored or logged.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Session, error) {
	if params.Password != params.PasswordConfirm {
		return nil, ErrPasswordMismatch
	}

	taken, err := s.users.UsernameExists(ctx, params.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, storage.ErrUsernameTaken
	}

	taken, err = s.users.EmailExists(ctx, params.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, storage.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         params.Name,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: hash,
		Address:      params.Address,
		Phone:        params.Phone,
		Enabled:      true,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// CreateUser re-checks uniqueness; a concurrent registration racing the
	// checks above still surfaces as the taken sentinel.
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	return s.openSession(ctx, user)
}

// Login verifies credentials and opens a new session. Every credential
// failure returns ErrInvalidCredentials; a disabled account returns
// ErrAccountDisabled (the transport layer collapses both to the same
// generic response).
func (s *Service) Login(ctx context.Context, username, pass string) (*Session, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Burn a hash comparison so the miss path costs the same as a
			// wrong password.
			_ = s.hasher.DummyCompare(pass)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, pass); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Enabled {
		return nil, ErrAccountDisabled
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	return s.openSession(ctx, user)
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated: the same string stays valid until logout
// or natural expiry. Checks run in order: not found, revoked, expired.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	record, err := s.tokens.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if record.Revoked {
		return nil, ErrTokenRevoked
	}

	if !s.now().UTC().Before(record.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	user, err := s.users.GetUserByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	accessToken, err := s.codec.IssueAccess(user.ID, user.Username, []string{user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	s.logger.DebugContext(ctx, "access token refreshed", slog.String("user_id", user.ID))

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken, // echoed back unchanged
		ExpiresIn:    s.codec.AccessTTL().Milliseconds(),
		Account:      user,
	}, nil
}

// Logout revokes every outstanding refresh record for the account.
// Idempotent; succeeds even with zero outstanding tokens.
func (s *Service) Logout(ctx context.Context, userID string) error {
	revoked, err := s.tokens.RevokeUserTokens(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", userID),
		slog.Int("tokens_revoked", revoked))

	return nil
}

// PurgeExpired deletes ledger records past their expiry. Called by the
// scheduled sweep, never from request handling.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	return s.tokens.DeleteExpiredTokens(ctx, s.now().UTC())
}

// openSession issues an access and refresh token pair for the account and
// persists the refresh half in the ledger. Concurrent logins for the same
// account accumulate independent records.
func (s *Service) openSession(ctx context.Context, user *models.User) (*Session, error) {
	roles := []string{user.Role}

	accessToken, err := s.codec.IssueAccess(user.ID, user.Username, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, expiresAt, err := s.codec.IssueRefresh(user.ID, user.Username, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	now := s.now().UTC()
	record := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: expiresAt.UTC(),
		Revoked:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tokens.SaveRefreshToken(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.codec.AccessTTL().Milliseconds(),
		Account:      user,
	}, nil
}
