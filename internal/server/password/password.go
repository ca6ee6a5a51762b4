// Package password wraps the one-way adaptive password hash.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch indicates the password does not match the stored hash
var ErrMismatch = errors.New("password mismatch")

// Hasher hashes and compares passwords using bcrypt with a tunable cost.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. cost <= 0 selects the bcrypt default.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of the plaintext password.
func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare checks plaintext against a stored hash in constant time.
// Returns ErrMismatch when they differ.
func (h *Hasher) Compare(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrMismatch
	}
	return nil
}

// dummyHash is a valid bcrypt hash of an unguessable value, used to keep
// the unknown-username login path as slow as a wrong-password one.
var dummyHash = func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("shopauth-timing-pad"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}()

// DummyCompare burns one bcrypt comparison against a throwaway hash.
// Always returns ErrMismatch.
func (h *Hasher) DummyCompare(password string) error {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
	return ErrMismatch
}
