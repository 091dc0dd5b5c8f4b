package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bqadmin/internal/config"
	"bqadmin/internal/models"
	"bqadmin/internal/storage"
	"bqadmin/internal/utils"
)

// UserStore is the subset of the user repository needed for login.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SessionBackend persists server-side sessions.
type SessionBackend interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (*storage.Session, error)
	Get(ctx context.Context, id string) (*storage.Session, error)
	Delete(ctx context.Context, id string) error
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID    string
	Email     string
	Role      models.Role
	SessionID string
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt int64
	User      *models.User
}

// Service issues, verifies and revokes browser sessions.
type Service struct {
	users    UserStore
	sessions SessionBackend
	cfg      *config.Config
}

func NewService(users UserStore, sessions SessionBackend, cfg *config.Config) *Service {
	return &Service{users: users, sessions: sessions, cfg: cfg}
}

// Login checks the password and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.CanLogin() {
		return nil, ErrInvalidCredentials
	}

	ok, err := utils.VerifyPasswordArgon2(password, *user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	sess, err := s.sessions.Create(ctx, user.ID, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	token, exp, err := GenerateJWTWithClaims(&SessionClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role.String(),
		SessionID: sess.ID,
	}, s.cfg)
	if err != nil {
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Authenticate resolves a token into the caller's identity. The session must
// still exist server side and the user must still exist; role and email are
// read fresh from the user store.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claims, err := ValidateSessionJWT(token, s.cfg)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	if sess.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	return &Identity{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sess.ID,
	}, nil
}

// Logout revokes the session behind identity.
func (s *Service) Logout(ctx context.Context, identity *Identity) error {
	if identity == nil || identity.SessionID == "" {
		return ErrInvalidToken
	}
	return s.sessions.Delete(ctx, identity.SessionID)
}
