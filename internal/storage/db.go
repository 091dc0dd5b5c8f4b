package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB wraps the database connection and provides health checks
type DB struct {
	conn *sqlx.DB
}

// DBConfig holds database configuration
type DBConfig struct {
	DSN string

	// Pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns default database configuration
func DefaultDBConfig() DBConfig {
	return DBConfig{
		DSN:             "postgres://postgres@localhost:5432/bqadmin?sslmode=disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// NewDB opens a PostgreSQL connection pool
func NewDB(cfg DBConfig) (*DB, error) {
	conn, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return &DB{conn: conn}, nil
}

// NewDBFromConn wraps an existing connection, e.g. one backed by sqlmock.
func NewDBFromConn(conn *sqlx.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks if the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Health returns the health status of the database
func (db *DB) Health(ctx context.Context) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var result int
	if err := db.conn.GetContext(ctx, &result, "SELECT 1"); err != nil {
		return fmt.Errorf("health check query failed: %w", err)
	}

	return nil
}

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT,
	role          TEXT NOT NULL DEFAULT 'USER' CHECK (role IN ('ADMIN', 'USER')),
	password_hash TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS users_created_at_idx ON users (created_at DESC);
`

// Migrate creates the tables this service owns if they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, usersSchema); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

// BeginTx starts a new transaction
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return db.conn.BeginTxx(ctx, opts)
}

// Conn returns the underlying sqlx connection
func (db *DB) Conn() *sqlx.DB {
	return db.conn
}

// NewUserRepository creates a new user repository
func (db *DB) NewUserRepository() *UserRepository {
	return NewUserRepository(db)
}
