// Package validation contains request field validation rules.
package validation

import (
	"fmt"
	"regexp"
)

// UsernamePattern defines the allowed username format:
// latin letters (a-z, A-Z), digits (0-9) and underscore (_), 3-32 characters.
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

// emailPattern is a pragmatic format check, not a full RFC 5322 parser.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	// MinUsernameLen is the minimum username length
	MinUsernameLen = 3
	// MaxUsernameLen is the maximum username length
	MaxUsernameLen = 32
	// MinPasswordLen is the minimum password length
	MinPasswordLen = 8
	// MaxNameLen is the maximum display name length
	MaxNameLen = 255
)

// ValidateUsername checks that username matches the allowed format.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}

	return nil
}

// ValidateEmail checks that email is present and looks like an address.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	if !emailPattern.MatchString(email) {
		return fmt.Errorf("email must be a valid email address")
	}

	return nil
}

// ValidatePassword checks the minimum password requirements.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}

	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	return nil
}

// ValidateName checks the display name constraints.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}

	if len(name) > MaxNameLen {
		return fmt.Errorf("name must not exceed %d characters", MaxNameLen)
	}

	return nil
}
