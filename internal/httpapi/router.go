package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"bqadmin/internal/analytics"
	"bqadmin/internal/auth"
	"bqadmin/internal/config"
	"bqadmin/internal/logging"
	"bqadmin/internal/middleware"
	"bqadmin/internal/ratelimit"
	"bqadmin/internal/storage"
)

// Dependencies aggregates all services the HTTP layer needs.
type Dependencies struct {
	Users     UserStore
	Analytics AnalyticsBackend
	Sessions  SessionService
	RateLimit ratelimit.Limiter
	AccessLog *logging.AccessLog

	// owned connections, closed by Close
	db    *storage.DB
	redis *storage.RedisClient
}

// NewRouter connects to Postgres and Redis, migrates the schema and returns
// the fully wired handler.
func NewRouter(cfg *config.Config) (http.Handler, *Dependencies, error) {
	db, err := storage.NewDB(storage.DBConfig{
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	redisClient, err := storage.NewRedisClient(storage.RedisConfig{
		Address:      cfg.Redis.Address,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	users := storage.NewUserRepository(db)
	sessions := auth.NewService(users, storage.NewSessionStore(redisClient.Client()), cfg)

	var limiter ratelimit.Limiter = ratelimit.NewNoopLimiter()
	if cfg.RateLimit.QueriesPerMinute > 0 {
		limiter = ratelimit.NewFixedLimiter(ratelimit.NewRateLimiter(redisClient.Client()), cfg.RateLimit.QueriesPerMinute)
	}

	var accessLog *logging.AccessLog
	if cfg.AccessLog.Enabled {
		accessLog, err = logging.NewAccessLog(logging.AccessLogConfig{
			FilePathTemplate: cfg.AccessLog.FilePathTemplate,
			MaxSize:          cfg.AccessLog.MaxSize,
			MaxFiles:         cfg.AccessLog.MaxFiles,
			BufferSize:       cfg.AccessLog.BufferSize,
			FlushInterval:    cfg.AccessLog.FlushInterval,
		})
		if err != nil {
			redisClient.Close()
			db.Close()
			return nil, nil, fmt.Errorf("failed to initialize access log: %w", err)
		}
	}

	deps := &Dependencies{
		Users:     users,
		Analytics: analytics.NewClient(cfg.Analytics),
		Sessions:  sessions,
		RateLimit: limiter,
		AccessLog: accessLog,
		db:        db,
		redis:     redisClient,
	}

	return NewHandler(deps), deps, nil
}

// NewHandler registers every route and wraps the mux in the session and
// access log middleware.
func NewHandler(deps *Dependencies) http.Handler {
	if deps.RateLimit == nil {
		deps.RateLimit = ratelimit.NewNoopLimiter()
	}

	mux := http.NewServeMux()
	registerRoutes(mux, deps)

	var handler http.Handler = mux
	if deps.AccessLog != nil {
		handler = middleware.AccessLogMiddleware(deps.AccessLog)(handler)
	}
	return middleware.SessionMiddleware(deps.Sessions)(handler)
}

func registerRoutes(mux *http.ServeMux, deps *Dependencies) {
	requireSession := middleware.RequireSession

	// Health check endpoint - public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Session endpoints
	mux.HandleFunc("POST /api/auth/login", deps.handleLogin)
	mux.Handle("POST /api/auth/logout", requireSession(http.HandlerFunc(deps.handleLogout)))
	mux.Handle("GET /api/auth/session", requireSession(http.HandlerFunc(deps.handleSession)))

	// Analytics proxies
	mux.HandleFunc("GET /api/bigquery/datasets", deps.handleListDatasets)
	mux.HandleFunc("POST /api/bigquery/datasets", deps.handleListDatasets)
	mux.HandleFunc("POST /api/chat/query", deps.handleChatQuery)
	mux.Handle("POST /api/model/config", requireSession(http.HandlerFunc(deps.handleSaveModelConfig)))

	// User management, open to any caller as the dashboard expects
	mux.HandleFunc("GET /api/users", deps.handleListUsers)
	mux.HandleFunc("POST /api/users", deps.handleCreateUser)
	mux.HandleFunc("GET /api/users/{id}", deps.handleGetUser)
	mux.HandleFunc("PATCH /api/users/{id}", deps.handleUpdateUser)
	mux.HandleFunc("DELETE /api/users/{id}", deps.handleDeleteUser)
}

// Close flushes the access log and releases database and Redis connections.
func (d *Dependencies) Close() error {
	if d.AccessLog != nil {
		d.AccessLog.Shutdown()
	}

	var errs []error
	if d.redis != nil {
		errs = append(errs, d.redis.Close())
	}
	if d.db != nil {
		errs = append(errs, d.db.Close())
	}
	return errors.Join(errs...)
}
