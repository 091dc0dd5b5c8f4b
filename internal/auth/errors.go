package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when a session token cannot be verified
	ErrInvalidToken = errors.New("invalid session token")

	// ErrSessionExpired is returned when the token or its server-side session has expired
	ErrSessionExpired = errors.New("session expired")
)
