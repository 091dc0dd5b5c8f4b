package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bqadmin/internal/models"
)

const userColumns = `id, email, name, role, password_hash, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// List returns every user, newest first
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	users := []*models.User{}
	if err := r.db.conn.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := r.db.conn.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := r.db.conn.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Create inserts a new user. ID is generated when empty and the timestamps
// are filled in from the database.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if !user.Role.IsValid() {
		user.Role = models.RoleUser
	}

	err := r.db.conn.QueryRowContext(
		ctx, query,
		user.ID, user.Email, user.Name, string(user.Role), user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Update applies a partial update and returns the stored row.
func (r *UserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	sets := make([]string, 0, 4)
	args := []interface{}{id}
	if patch.Email != nil {
		args = append(args, *patch.Email)
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}
	if patch.NameSet {
		args = append(args, patch.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.Role != nil {
		args = append(args, string(*patch.Role))
		sets = append(sets, fmt.Sprintf("role = $%d", len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + userColumns

	var user models.User
	err := r.db.conn.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return &user, nil
}

// SetPassword stores a new password hash for the user
func (r *UserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.conn.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Delete deletes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.conn.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// CountAdmins returns how many ADMIN accounts exist
func (r *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	var n int
	if err := r.db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE role = $1`, string(models.RoleAdmin)); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
