package models

import "time"

// Role labels assigned to accounts. Registration always produces RoleUser;
// RoleAdmin is set out of band.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents a customer account.
type User struct {
	ID           string    `json:"id"`      // UUID
	Name         string    `json:"name"`    // display name
	Username     string    `json:"username"` // unique, case-insensitive
	Email        string    `json:"email"`    // unique, case-insensitive
	PasswordHash string    `json:"-"`        // bcrypt hash, never serialized
	Address      string    `json:"address"`  // optional
	Phone        string    `json:"phone"`    // optional
	Enabled      bool      `json:"enabled"`  // disabled accounts cannot log in
	Role         string    `json:"role"`     // RoleUser or RoleAdmin
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
