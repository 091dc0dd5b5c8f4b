package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bqadmin/internal/models"
	"bqadmin/internal/storage"
)

type memStore struct {
	users     map[string]*models.User
	passwords map[string]string
	countErr  error
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*models.User{}, passwords: map[string]string{}}
}

func (m *memStore) CountAdmins(ctx context.Context) (int, error) {
	n := 0
	for _, u := range m.users {
		if u.IsAdmin() {
			n++
		}
	}
	return n, m.countErr
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *memStore) Create(ctx context.Context, user *models.User) error {
	user.ID = "generated-id"
	m.users[user.ID] = user
	return nil
}

func (m *memStore) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	patch.Apply(u)
	return u, nil
}

func (m *memStore) SetPassword(ctx context.Context, id, hash string) error {
	m.passwords[id] = hash
	return nil
}

func TestBootstrap_CreatesAdmin(t *testing.T) {
	store := newMemStore()

	user, created, err := bootstrap(context.Background(), store, "root@example.com", "Root", "$argon2id$hash")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, created)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.CanLogin())
	assert.Equal(t, "Root", *user.Name)
}

func TestBootstrap_PromotesExistingUser(t *testing.T) {
	store := newMemStore()
	store.users["u-1"] = &models.User{ID: "u-1", Email: "root@example.com", Role: models.RoleUser}

	user, created, err := bootstrap(context.Background(), store, "root@example.com", "", "$argon2id$hash")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, "$argon2id$hash", store.passwords["u-1"])
}

func TestBootstrap_NoopWhenAdminExists(t *testing.T) {
	store := newMemStore()
	store.users["a-1"] = &models.User{ID: "a-1", Email: "other@example.com", Role: models.RoleAdmin}

	user, _, err := bootstrap(context.Background(), store, "root@example.com", "", "$argon2id$hash")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Len(t, store.users, 1)
}

func TestBootstrap_StoreError(t *testing.T) {
	store := newMemStore()
	store.countErr = errors.New("connection refused")

	_, _, err := bootstrap(context.Background(), store, "root@example.com", "", "h")
	assert.Error(t, err)
}

func TestValidateCredentials(t *testing.T) {
	assert.NoError(t, validateCredentials("root@example.com", "long-enough"))
	assert.Error(t, validateCredentials("", "long-enough"))
	assert.Error(t, validateCredentials("root@example.com", "short"))
	assert.Error(t, validateCredentials("no-at-sign", "long-enough"))
	assert.Error(t, validateCredentials("a@b@c", "long-enough"))
	assert.Error(t, validateCredentials("@example.com", "long-enough"))
	assert.Error(t, validateCredentials("root@", "long-enough"))
}
