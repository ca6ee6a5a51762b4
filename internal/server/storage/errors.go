package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates that an account with this username already
	// exists (compared case-insensitively)
	ErrUsernameTaken = errors.New("username already exists")

	// ErrEmailTaken indicates that an account with this email already
	// exists (compared case-insensitively)
	ErrEmailTaken = errors.New("email already exists")

	// ErrTokenNotFound indicates that refresh token was not found
	ErrTokenNotFound = errors.New("refresh token not found")
)
