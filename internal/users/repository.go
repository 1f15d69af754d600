// Package users owns the identity records: storage, password verification for
// login, and the account endpoints.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medialist/internal/database"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrUserNotFound is returned when user is not found
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameExists is returned when username is already taken
	ErrUsernameExists = errors.New("username already taken")
)

// User represents a user in the system
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is the persistence contract for users
type Store interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	Delete(ctx context.Context, username string) error
	SetAdmin(ctx context.Context, username string, isAdmin bool) error
}

// Repository handles all database operations for users
type Repository struct {
	db database.Service
}

// NewRepository creates a new users repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

// GetByUsername retrieves a user by username
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT user_id, username, password_hash, is_admin, created_at
		FROM users
		WHERE username = $1
	`

	user := &User{}
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Create inserts a new non-admin user
func (r *Repository) Create(ctx context.Context, username, passwordHash string) (*User, error) {
	query := `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING user_id, username, password_hash, is_admin, created_at
	`

	user := &User{}
	err := r.db.QueryRow(ctx, query, username, passwordHash).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// UpdatePassword replaces the stored hash for username
func (r *Repository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE username = $2`, passwordHash, username)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes the user
func (r *Repository) Delete(ctx context.Context, username string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetAdmin sets the administrative privilege flag
func (r *Repository) SetAdmin(ctx context.Context, username string, isAdmin bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_admin = $1 WHERE username = $2`, isAdmin, username)
	if err != nil {
		return fmt.Errorf("failed to update admin flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
