package storage

import (
	"context"
	"time"

	"github.com/iudanet/shopauth/internal/models"
)

// TokenStorage defines interface for the refresh token ledger
type TokenStorage interface {
	// SaveRefreshToken inserts a new ledger record with Revoked=false.
	// Token strings are globally unique; one record per issuance.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error

	// GetRefreshToken retrieves a record by token string.
	// Returns ErrTokenNotFound if no record matches.
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)

	// GetUserTokens retrieves all records for an account.
	// Returns empty slice if there are none.
	GetUserTokens(ctx context.Context, userID string) ([]*models.RefreshToken, error)

	// RevokeUserTokens marks every non-revoked record for the account as
	// revoked, in a single transaction. Idempotent; returns the number of
	// records that changed state.
	RevokeUserTokens(ctx context.Context, userID string) (int, error)

	// DeleteExpiredTokens removes all records whose expiry is before now.
	// Returns the number of deleted records. Intended for a scheduled
	// sweep, not request handling.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}
