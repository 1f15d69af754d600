// Package genres serves the genre catalogue. Reads need a session, writes an
// administrator.
package genres

import (
	"context"
	"errors"
	"fmt"

	"medialist/internal/database"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrGenreNotFound is returned when genre is not found
	ErrGenreNotFound = errors.New("genre not found")
	// ErrGenreExists is returned when the genre name is already taken
	ErrGenreExists = errors.New("genre already exists")
)

// Genre represents a catalogue genre
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Store is the persistence contract for genres
type Store interface {
	List(ctx context.Context) ([]Genre, error)
	GetByName(ctx context.Context, name string) (*Genre, error)
	Create(ctx context.Context, name string) (*Genre, error)
	Delete(ctx context.Context, name string) error
}

// Repository handles all database operations for genres
type Repository struct {
	db database.Service
}

// NewRepository creates a new genres repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

// List returns every genre ordered by name
func (r *Repository) List(ctx context.Context) ([]Genre, error) {
	rows, err := r.db.Query(ctx, `SELECT genre_id, name FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer rows.Close()

	genres := []Genre{}
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate genres: %w", err)
	}

	return genres, nil
}

// GetByName retrieves a genre by name
func (r *Repository) GetByName(ctx context.Context, name string) (*Genre, error) {
	g := &Genre{}
	err := r.db.QueryRow(ctx, `SELECT genre_id, name FROM genres WHERE name = $1`, name).Scan(&g.ID, &g.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGenreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get genre: %w", err)
	}
	return g, nil
}

// Create inserts a genre
func (r *Repository) Create(ctx context.Context, name string) (*Genre, error) {
	g := &Genre{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO genres (name) VALUES ($1) RETURNING genre_id, name`, name,
	).Scan(&g.ID, &g.Name)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrGenreExists
		}
		return nil, fmt.Errorf("failed to create genre: %w", err)
	}
	return g, nil
}

// Delete removes a genre
func (r *Repository) Delete(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM genres WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete genre: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGenreNotFound
	}
	return nil
}
