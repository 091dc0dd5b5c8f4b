package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bqadmin/internal/auth"
	"bqadmin/internal/logging"
	"bqadmin/internal/utils"
)

// ContextKey defines the type for context keys to avoid conflicts
type ContextKey string

const (
	// IdentityKey is the context key for the authenticated session identity
	IdentityKey ContextKey = "identity"
	// TokenKey is the context key for the raw session token
	TokenKey ContextKey = "sessionToken"
)

// SessionCookieName is the cookie that carries the session token for browsers.
const SessionCookieName = "bqadmin_session"

// SessionAuthenticator resolves a session token into an identity.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// SessionMiddleware attaches the caller's identity to the request context when
// a valid session token is presented. Requests without one pass through
// anonymously; use RequireSession on routes that need a session.
func SessionMiddleware(authenticator SessionAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrSessionExpired) {
					logging.Warningf("session lookup failed: %v", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			ctx = context.WithValue(ctx, TokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests without an authenticated identity.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetIdentity(r.Context()); !ok {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExtractToken reads the session token from "Authorization: Bearer" or the
// session cookie.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// GetIdentity retrieves the session identity from the request context
func GetIdentity(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*auth.Identity)
	return identity, ok && identity != nil
}

// GetUserID returns the session user id, or "" for anonymous requests
func GetUserID(ctx context.Context) string {
	if identity, ok := GetIdentity(ctx); ok {
		return identity.UserID
	}
	return ""
}
