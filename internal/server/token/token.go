// Package token implements the signed bearer token codec. Both access and
// refresh tokens are compact HS256 JWTs (header.payload.signature); refresh
// tokens additionally live in the persisted ledger, which is the authority
// for revocation and refresh expiry.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a malformed, tampered or expired token
var ErrInvalidToken = errors.New("invalid token")

// MinSecretLen is the minimum signing secret length in bytes required
// for HS256
const MinSecretLen = 32

// Claims represents the identity facts embedded in a token. The set is
// closed: tokens missing the subject or user id are rejected at decode
// time rather than returning partial data.
type Claims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// Service issues and verifies tokens. Stateless; safe for concurrent use.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService creates a token codec.
// The secret must be at least MinSecretLen bytes; shorter secrets are
// rejected here so misconfiguration fails at startup, not per request.
func NewService(secret string, accessTTL, refreshTTL time.Duration) (*Service, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("signing secret must be at least %d bytes, got %d", MinSecretLen, len(secret))
	}

	return &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

// IssueAccess creates a short-lived access token.
func (s *Service) IssueAccess(userID, username string, roles []string) (string, error) {
	return s.issue(userID, username, roles, s.accessTTL)
}

// IssueRefresh creates a long-lived refresh token and returns its expiry
// for the ledger record.
func (s *Service) IssueRefresh(userID, username string, roles []string) (string, time.Time, error) {
	expiresAt := s.now().Add(s.refreshTTL)
	tokenString, err := s.issue(userID, username, roles, s.refreshTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func (s *Service) issue(userID, username string, roles []string, ttl time.Duration) (string, error) {
	now := s.now()

	claims := Claims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify checks the signature and expiry and returns the claims.
// The signature comparison is constant-time (HMAC compare inside jwt);
// a token whose expiry equals now exactly is already expired.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if err := requireClaims(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// Decode extracts claims without checking the signature or expiry.
// For callers that hold an already-verified token; still rejects
// malformed input and incomplete claim sets.
func (s *Service) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if err := requireClaims(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

func requireClaims(claims *Claims) error {
	if claims.Subject == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if claims.UserID == "" {
		return fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	return nil
}
