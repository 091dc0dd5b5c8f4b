package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"bqadmin/internal/config"
)

const sessionIssuer = "bqadmin"

// SessionClaims are embedded in the browser session token.
type SessionClaims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateJWTWithClaims signs claims with the configured secret. The token
// expires after cfg.SessionTTL; the expiry is returned as a unix timestamp.
func GenerateJWTWithClaims(claims *SessionClaims, cfg *config.Config) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(cfg.SessionTTL)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   claims.UserID,
		ID:        claims.SessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(cfg.JWTSecret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt.Unix(), nil
}

// ValidateSessionJWT verifies signature, algorithm and expiry and returns the claims.
func ValidateSessionJWT(tokenString string, cfg *config.Config) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.JWTSecret, nil
	})
	if err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || claims.SessionID == "" || claims.Issuer != sessionIssuer {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
