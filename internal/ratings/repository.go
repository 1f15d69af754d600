// Package ratings stores user ratings of media entries. A user rates an entry
// at most once; comments stay hidden until their author confirms them.
package ratings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medialist/internal/database"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrRatingNotFound is returned when rating is not found
	ErrRatingNotFound = errors.New("rating not found")
	// ErrAlreadyRated is returned when the user has already rated the entry
	ErrAlreadyRated = errors.New("user has already rated this media entry")
	// ErrMediaNotFound is returned when the rated entry does not exist
	ErrMediaNotFound = errors.New("media not found")
	// ErrUnknownUser is returned when the acting account no longer exists
	ErrUnknownUser = errors.New("user not found")
)

// Rating represents one user's score for a media entry
type Rating struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	MediaID     int64     `json:"media_id"`
	Score       int       `json:"score"`
	Comment     string    `json:"comment"`
	IsConfirmed bool      `json:"is_confirmed"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the persistence contract for ratings
type Store interface {
	GetByID(ctx context.Context, id int64) (*Rating, error)
	Create(ctx context.Context, username string, mediaID int64, score int, comment string) (*Rating, error)
	Update(ctx context.Context, id int64, score *int, comment *string) error
	Delete(ctx context.Context, id int64) error
	Confirm(ctx context.Context, id int64) error
	ToggleLike(ctx context.Context, username string, id int64) (bool, error)
}

// Repository handles all database operations for ratings
type Repository struct {
	db database.Service
}

// NewRepository creates a new ratings repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves a rating with its author's username
func (r *Repository) GetByID(ctx context.Context, id int64) (*Rating, error) {
	query := `
		SELECT r.rating_id, u.username, r.media_id, r.score, r.comment, r.is_confirmed, r.created_at
		FROM ratings r
		JOIN users u ON u.user_id = r.user_id
		WHERE r.rating_id = $1
	`

	rating := &Rating{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rating.ID,
		&rating.Username,
		&rating.MediaID,
		&rating.Score,
		&rating.Comment,
		&rating.IsConfirmed,
		&rating.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRatingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return rating, nil
}

// Create inserts an unconfirmed rating by username
func (r *Repository) Create(ctx context.Context, username string, mediaID int64, score int, comment string) (*Rating, error) {
	query := `
		INSERT INTO ratings (user_id, media_id, score, comment)
		SELECT user_id, $2, $3, $4 FROM users WHERE username = $1
		RETURNING rating_id, created_at
	`

	rating := &Rating{Username: username, MediaID: mediaID, Score: score, Comment: comment}
	err := r.db.QueryRow(ctx, query, username, mediaID, score, comment).Scan(&rating.ID, &rating.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrUnknownUser
	case database.IsUniqueViolation(err):
		return nil, ErrAlreadyRated
	case database.IsForeignKeyViolation(err):
		return nil, ErrMediaNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to create rating: %w", err)
	}
	return rating, nil
}

// Update changes whichever of score and comment is set
func (r *Repository) Update(ctx context.Context, id int64, score *int, comment *string) error {
	var (
		sets []string
		args []any
	)
	if score != nil {
		args = append(args, *score)
		sets = append(sets, fmt.Sprintf("score = $%d", len(args)))
	}
	if comment != nil {
		args = append(args, *comment)
		sets = append(sets, fmt.Sprintf("comment = $%d", len(args)))
	}
	if len(sets) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE ratings SET %s WHERE rating_id = $%d`, strings.Join(sets, ", "), len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRatingNotFound
	}
	return nil
}

// Delete removes a rating and its likes
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ratings WHERE rating_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRatingNotFound
	}
	return nil
}

// Confirm makes the rating's comment publicly visible
func (r *Repository) Confirm(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE ratings SET is_confirmed = TRUE WHERE rating_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to confirm rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRatingNotFound
	}
	return nil
}

// ToggleLike flips whether username likes the rating and reports the new state
func (r *Repository) ToggleLike(ctx context.Context, username string, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM rating_likes
		WHERE user_id = (SELECT user_id FROM users WHERE username = $1) AND rating_id = $2
	`, username, id)
	if err != nil {
		return false, fmt.Errorf("failed to remove like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	tag, err = r.db.Exec(ctx, `
		INSERT INTO rating_likes (user_id, rating_id)
		SELECT user_id, $2 FROM users WHERE username = $1
	`, username, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, ErrRatingNotFound
		}
		return false, fmt.Errorf("failed to add like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, ErrUnknownUser
	}
	return true, nil
}
