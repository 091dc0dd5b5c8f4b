package analytics

import "errors"

var (
	// ErrNotConfigured is returned when the client has no URL or key.
	ErrNotConfigured = errors.New("analytics backend not configured")
	// ErrUpstream is returned when the backend answers with a non-2xx status.
	ErrUpstream = errors.New("analytics backend error")
	// ErrInvalidResponse is returned when the backend body is not JSON.
	ErrInvalidResponse = errors.New("invalid analytics response")
)
