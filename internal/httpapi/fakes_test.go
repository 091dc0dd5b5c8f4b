package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"bqadmin/internal/analytics"
	"bqadmin/internal/auth"
	"bqadmin/internal/config"
	"bqadmin/internal/models"
	"bqadmin/internal/storage"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
	clock time.Time
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}, clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *fakeUserStore) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *fakeUserStore) List(ctx context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []*models.User{}
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return storage.ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = s.tick()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	patch.Apply(u)
	u.UpdatedAt = s.tick()
	return u, nil
}

func (s *fakeUserStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type fakeSessions struct {
	mu     sync.Mutex
	tokens map[string]*auth.Identity
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: map[string]*auth.Identity{}}
}

func (f *fakeSessions) add(token string, identity *auth.Identity) {
	f.mu.Lock()
	f.tokens[token] = identity
	f.mu.Unlock()
}

func (f *fakeSessions) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	if email == "admin@example.com" && password == "correct-horse" {
		user := &models.User{ID: "admin-1", Email: email, Role: models.RoleAdmin}
		f.add("login-token", &auth.Identity{UserID: user.ID, Email: email, Role: user.Role, SessionID: "s-login"})
		return &auth.LoginResult{Token: "login-token", ExpiresAt: time.Now().Add(time.Hour).Unix(), User: user}, nil
	}
	if email == "broken@example.com" {
		return nil, errors.New("redis down")
	}
	return nil, auth.ErrInvalidCredentials
}

func (f *fakeSessions) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.tokens[token]; ok {
		return id, nil
	}
	return nil, auth.ErrInvalidToken
}

func (f *fakeSessions) Logout(ctx context.Context, identity *auth.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for tok, id := range f.tokens {
		if id.SessionID == identity.SessionID {
			delete(f.tokens, tok)
		}
	}
	return nil
}

type denyLimiter struct {
	err  error
	keys []string
}

func (l *denyLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return false, l.err
	}
	return false, nil
}

// upstream is a stand-in analytics backend that counts calls.
type upstream struct {
	calls   atomic.Int32
	handler http.HandlerFunc
}

type testEnv struct {
	handler  http.Handler
	users    *fakeUserStore
	sessions *fakeSessions
	upstream *upstream
	deps     *Dependencies
}

func newTestEnv(t *testing.T, h http.HandlerFunc) *testEnv {
	t.Helper()

	up := &upstream{handler: h}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up.calls.Add(1)
		if up.handler == nil {
			w.Write([]byte(`{}`))
			return
		}
		up.handler(w, r)
	}))
	t.Cleanup(srv.Close)

	env := &testEnv{
		users:    newFakeUserStore(),
		sessions: newFakeSessions(),
		upstream: up,
	}
	env.sessions.add("user-token", &auth.Identity{UserID: "user-42", Email: "u@example.com", Role: models.RoleUser, SessionID: "s-42"})

	env.deps = &Dependencies{
		Users:     env.users,
		Analytics: analytics.NewClient(config.AnalyticsConfig{BaseURL: srv.URL, APIKey: "test-key", Timeout: 5 * time.Second}),
		Sessions:  env.sessions,
	}
	env.handler = NewHandler(env.deps)
	return env
}

func (e *testEnv) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}
