package models

import "time"

// RefreshToken is one persisted login session. A new record is created on
// every successful login or registration; logout revokes all records for
// the account. Revoked is monotonic: once set it is never cleared.
type RefreshToken struct {
	ID        string    `json:"id"`         // UUID
	UserID    string    `json:"user_id"`    // owning account
	Token     string    `json:"token"`      // signed token string, globally unique
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsValid reports whether the record can still be exchanged for an access
// token at the given instant. A record whose expiry equals now exactly is
// already expired.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
