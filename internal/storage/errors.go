package storage

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the identifier
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when the email is already taken
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrSessionNotFound is returned when a session is unknown or expired
	ErrSessionNotFound = errors.New("session not found")
)
