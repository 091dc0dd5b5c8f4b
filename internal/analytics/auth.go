package analytics

import (
	"context"
	"fmt"
	"net/http"
)

// Authenticator prepares credentials for a request to the analytics backend.
type Authenticator interface {
	Authenticate(ctx context.Context) (AuthContext, error)
}

// AuthContext applies prepared credentials to an outgoing request.
type AuthContext interface {
	ApplyToRequest(ctx context.Context, req *http.Request) error
}

// HeaderAuth puts a static key in a request header.
type HeaderAuth struct {
	key    string
	header string
	prefix string
}

// NewHeaderAuth creates an authenticator that sets header to prefix+key.
func NewHeaderAuth(key, header, prefix string) *HeaderAuth {
	return &HeaderAuth{key: key, header: header, prefix: prefix}
}

// NewBearerAuth is HeaderAuth with "Authorization: Bearer <key>".
func NewBearerAuth(key string) *HeaderAuth {
	return NewHeaderAuth(key, "Authorization", "Bearer ")
}

func (a *HeaderAuth) Authenticate(ctx context.Context) (AuthContext, error) {
	if a.key == "" {
		return nil, fmt.Errorf("%w: empty API key", ErrNotConfigured)
	}
	return a, nil
}

func (a *HeaderAuth) ApplyToRequest(ctx context.Context, req *http.Request) error {
	req.Header.Set(a.header, a.prefix+a.key)
	return nil
}
