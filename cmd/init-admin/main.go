package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"bqadmin/internal/config"
	"bqadmin/internal/models"
	"bqadmin/internal/storage"
	"bqadmin/internal/utils"
)

// adminStore is the part of the user repository the bootstrap needs.
type adminStore interface {
	CountAdmins(ctx context.Context) (int, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
}

func main() {
	fmt.Println("bqadmin - Bootstrap Admin Initialization")
	fmt.Println(strings.Repeat("=", 48))

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	email := os.Getenv("ADMIN_BOOTSTRAP_EMAIL")
	password := os.Getenv("ADMIN_BOOTSTRAP_PASSWORD")
	name := os.Getenv("ADMIN_BOOTSTRAP_NAME")

	if err := validateCredentials(email, password); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Connecting to database...")
	db, err := storage.NewDB(storage.DBConfig{
		DSN:             dbCfg.URL,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: dbCfg.ConnMaxLifetime,
		ConnMaxIdleTime: dbCfg.ConnMaxIdleTime,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to migrate database: %v\n", err)
		os.Exit(1)
	}

	hash, err := utils.HashPasswordArgon2(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	user, created, err := bootstrap(ctx, storage.NewUserRepository(db), email, name, hash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	if user == nil {
		fmt.Println("INFO: An admin user already exists. Bootstrap not needed.")
		fmt.Println("Exiting successfully (no action taken)")
		return
	}

	fmt.Println()
	if created {
		fmt.Println("SUCCESS: Bootstrap admin user created")
	} else {
		fmt.Println("SUCCESS: Existing user promoted to ADMIN and password set")
	}
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("ID: %s\n", user.ID)
	fmt.Printf("Role: %s\n", user.Role)
	fmt.Println("\nRemove ADMIN_BOOTSTRAP_EMAIL and ADMIN_BOOTSTRAP_PASSWORD from your environment.")
}

// bootstrap creates the first ADMIN account, or promotes an existing account
// with the same email. It does nothing (nil user) once any admin exists.
func bootstrap(ctx context.Context, store adminStore, email, name, passwordHash string) (*models.User, bool, error) {
	admins, err := store.CountAdmins(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing admins: %w", err)
	}
	if admins > 0 {
		return nil, false, nil
	}

	existing, err := store.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
		return nil, false, fmt.Errorf("failed to check for existing user: %w", err)
	}

	if existing != nil {
		role := models.RoleAdmin
		user, err := store.Update(ctx, existing.ID, models.UserPatch{Role: &role})
		if err != nil {
			return nil, false, fmt.Errorf("failed to promote user: %w", err)
		}
		if err := store.SetPassword(ctx, existing.ID, passwordHash); err != nil {
			return nil, false, fmt.Errorf("failed to set password: %w", err)
		}
		return user, false, nil
	}

	user := &models.User{
		Email:        email,
		Role:         models.RoleAdmin,
		PasswordHash: &passwordHash,
	}
	if name != "" {
		user.Name = &name
	}
	if err := store.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create admin user: %w", err)
	}
	return user, true, nil
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return errors.New("ADMIN_BOOTSTRAP_EMAIL and ADMIN_BOOTSTRAP_PASSWORD must be set")
	}
	if !isValidEmail(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	return nil
}

// isValidEmail checks for exactly one @ with text on both sides
func isValidEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at == strings.LastIndexByte(email, '@') && at < len(email)-1
}
