package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "bqadmin:session:"

// Session is a logged-in browser session. The signed token only carries the
// session ID; the session is valid for as long as this record exists.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore keeps sessions in Redis with a TTL so logout and expiry are
// enforced server side.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a Redis-backed session store
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Create starts a new session for userID that expires after ttl
func (s *SessionStore) Create(ctx context.Context, userID string, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID), data, ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return sess, nil
}

// Get returns the session or ErrSessionNotFound when it is unknown or expired
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// Delete ends a session. Deleting an unknown session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
