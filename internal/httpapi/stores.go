package httpapi

import (
	"context"
	"encoding/json"

	"bqadmin/internal/analytics"
	"bqadmin/internal/auth"
	"bqadmin/internal/models"
)

// UserStore is the user repository as seen by the handlers.
type UserStore interface {
	List(ctx context.Context) ([]*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// AnalyticsBackend forwards dataset, query and model configuration calls.
type AnalyticsBackend interface {
	ListDatasets(ctx context.Context, projectID string) (json.RawMessage, error)
	Query(ctx context.Context, userID string, req analytics.QueryRequest) (*analytics.Response, error)
	SaveModelConfig(ctx context.Context, mc analytics.ModelConfig) (json.RawMessage, error)
}

// SessionService opens, resolves and closes browser sessions.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
	Logout(ctx context.Context, identity *auth.Identity) error
}
