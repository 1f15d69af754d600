// Package media serves the catalogue of media entries. Browsing is public;
// entries are created by any signed-in user and changed only by their creator
// or an administrator.
package media

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
	// ErrMediaNotFound is returned when media entry is not found
	ErrMediaNotFound = errors.New("media not found")
	// ErrTitleExists is returned when another entry already uses the title
	ErrTitleExists = errors.New("media title already exists")
	// ErrUnknownGenre is returned when a genre name does not exist
	ErrUnknownGenre = errors.New("genre not found")
	// ErrUnknownUser is returned when the acting account no longer exists
	ErrUnknownUser = errors.New("user not found")
)

// DefaultType is used when an entry is created without a type
const DefaultType = "Movie"

// recommendationLimit caps GET /media/recommendations
const recommendationLimit = 5

// Media represents a catalogue entry
type Media struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Type           string  `json:"type"`
	ReleaseYear    int     `json:"release_year"`
	AgeRestriction int     `json:"age_restriction"`
	Creator        string  `json:"creator"`
	AverageScore   float64 `json:"avg_score"`
}

// Review is a rating as shown on an entry's detail page. The comment is
// blank until its author confirms it.
type Review struct {
	ID        int64     `json:"rating_id"`
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment"`
	Likes     int64     `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows GET /media. Zero values are ignored.
type Filter struct {
	Search string
	Type   string
	Genre  string
	Year   int
	MaxAge int
	Sort   string
}

// Changes holds the fields of a partial update; nil means unchanged
type Changes struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Type           *string `json:"type"`
	ReleaseYear    *int    `json:"release_year"`
	AgeRestriction *int    `json:"age_restriction"`
}

// Empty reports whether no field is set
func (c Changes) Empty() bool {
	return c.Title == nil && c.Description == nil && c.Type == nil &&
		c.ReleaseYear == nil && c.AgeRestriction == nil
}

// Store is the persistence contract for media entries
type Store interface {
	List(ctx context.Context, filter Filter) ([]Media, error)
	GetByID(ctx context.Context, id int64) (*Media, error)
	Create(ctx context.Context, creator string, m Media) (*Media, error)
	Update(ctx context.Context, id int64, changes Changes) error
	Delete(ctx context.Context, id int64) error
	Reviews(ctx context.Context, id int64) ([]Review, error)
	ToggleFavorite(ctx context.Context, username string, id int64) (bool, error)
	AddGenre(ctx context.Context, id int64, genre string) error
	Recommendations(ctx context.Context, username string) ([]Media, error)
}

// Repository handles all database operations for media entries
type Repository struct {
	db database.Service
}

// NewRepository creates a new media repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

const selectMedia = `
	SELECT m.media_id, m.title, m.description, m.type, m.release_year, m.age_restriction,
		u.username, COALESCE(ROUND(AVG(r.score)::numeric, 1), 0)::float8 AS avg_score
	FROM media_entries m
	JOIN users u ON u.user_id = m.creator_id
	LEFT JOIN ratings r ON r.media_id = m.media_id
`

const groupMedia = ` GROUP BY m.media_id, u.username`

var sortOrders = map[string]string{
	"year":  "m.release_year DESC, m.media_id",
	"title": "m.title ASC, m.media_id",
	"score": "avg_score DESC, m.media_id",
}

func scanMedia(row pgx.Row) (*Media, error) {
	m := &Media{}
	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.Type,
		&m.ReleaseYear,
		&m.AgeRestriction,
		&m.Creator,
		&m.AverageScore,
	)
	return m, err
}

// List returns the entries matching filter. Unknown sort keys fall back to
// creation order.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Media, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		where = append(where, "m.title ILIKE '%' || "+arg(filter.Search)+" || '%'")
	}
	if filter.Type != "" {
		where = append(where, "LOWER(m.type) = LOWER("+arg(filter.Type)+")")
	}
	if filter.Year > 0 {
		where = append(where, "m.release_year = "+arg(filter.Year))
	}
	if filter.MaxAge > 0 {
		where = append(where, "m.age_restriction <= "+arg(filter.MaxAge))
	}
	if filter.Genre != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM media_genres mg JOIN genres g ON g.genre_id = mg.genre_id
			WHERE mg.media_id = m.media_id AND LOWER(g.name) = LOWER(`+arg(filter.Genre)+`))`)
	}

	query := selectMedia
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += groupMedia

	order, ok := sortOrders[filter.Sort]
	if !ok {
		order = "m.media_id"
	}
	query += " ORDER BY " + order

	return r.queryMedia(ctx, query, args...)
}

// GetByID retrieves a single entry with its average score
func (r *Repository) GetByID(ctx context.Context, id int64) (*Media, error) {
	m, err := scanMedia(r.db.QueryRow(ctx, selectMedia+` WHERE m.media_id = $1`+groupMedia, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return m, nil
}

// Create inserts an entry owned by creator
func (r *Repository) Create(ctx context.Context, creator string, m Media) (*Media, error) {
	if m.Type == "" {
		m.Type = DefaultType
	}

	query := `
		INSERT INTO media_entries (title, description, type, release_year, age_restriction, creator_id)
		SELECT $1, $2, $3, $4, $5, user_id FROM users WHERE username = $6
		RETURNING media_id
	`

	err := r.db.QueryRow(ctx, query,
		m.Title, m.Description, m.Type, m.ReleaseYear, m.AgeRestriction, creator,
	).Scan(&m.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrTitleExists
		}
		return nil, fmt.Errorf("failed to create media: %w", err)
	}

	m.Creator = creator
	m.AverageScore = 0
	return &m, nil
}

// Update applies the set fields of changes
func (r *Repository) Update(ctx context.Context, id int64, changes Changes) error {
	if changes.Empty() {
		_, err := r.GetByID(ctx, id)
		return err
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if changes.Title != nil {
		set("title", *changes.Title)
	}
	if changes.Description != nil {
		set("description", *changes.Description)
	}
	if changes.Type != nil {
		set("type", *changes.Type)
	}
	if changes.ReleaseYear != nil {
		set("release_year", *changes.ReleaseYear)
	}
	if changes.AgeRestriction != nil {
		set("age_restriction", *changes.AgeRestriction)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE media_entries SET %s WHERE media_id = $%d`, strings.Join(sets, ", "), len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrTitleExists
		}
		return fmt.Errorf("failed to update media: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMediaNotFound
	}
	return nil
}

// Delete removes an entry together with its ratings, favorites and genre links
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media_entries WHERE media_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMediaNotFound
	}
	return nil
}

// Reviews lists the ratings of an entry, newest first
func (r *Repository) Reviews(ctx context.Context, id int64) ([]Review, error) {
	query := `
		SELECT r.rating_id, u.username, r.score,
			CASE WHEN r.is_confirmed THEN r.comment ELSE '' END,
			COUNT(l.user_id), r.created_at
		FROM ratings r
		JOIN users u ON u.user_id = r.user_id
		LEFT JOIN rating_likes l ON l.rating_id = r.rating_id
		WHERE r.media_id = $1
		GROUP BY r.rating_id, u.username
		ORDER BY r.created_at DESC, r.rating_id DESC
	`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.Username, &rv.Score, &rv.Comment, &rv.Likes, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}

	return reviews, nil
}

// ToggleFavorite flips whether username has marked the entry as a favorite
// and reports the new state.
func (r *Repository) ToggleFavorite(ctx context.Context, username string, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM favorites
		WHERE user_id = (SELECT user_id FROM users WHERE username = $1) AND media_id = $2
	`, username, id)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	tag, err = r.db.Exec(ctx, `
		INSERT INTO favorites (user_id, media_id)
		SELECT user_id, $2 FROM users WHERE username = $1
	`, username, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, ErrMediaNotFound
		}
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, ErrUnknownUser
	}
	return true, nil
}

// AddGenre links the entry to the named genre, case-insensitively.
// Linking twice is not an error.
func (r *Repository) AddGenre(ctx context.Context, id int64, genre string) error {
	var genreID int64
	err := r.db.QueryRow(ctx, `SELECT genre_id FROM genres WHERE LOWER(name) = LOWER($1)`, genre).Scan(&genreID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUnknownGenre
	}
	if err != nil {
		return fmt.Errorf("failed to look up genre: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO media_genres (media_id, genre_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, id, genreID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrMediaNotFound
		}
		return fmt.Errorf("failed to add genre: %w", err)
	}
	return nil
}

// Recommendations suggests unrated entries whose type username has rated
// four or higher before, newest releases first.
func (r *Repository) Recommendations(ctx context.Context, username string) ([]Media, error) {
	query := selectMedia + `
		WHERE m.type IN (
			SELECT liked.type FROM ratings lr
			JOIN media_entries liked ON liked.media_id = lr.media_id
			WHERE lr.user_id = (SELECT user_id FROM users WHERE username = $1) AND lr.score >= 4
		)
		AND NOT EXISTS (
			SELECT 1 FROM ratings own
			WHERE own.media_id = m.media_id
				AND own.user_id = (SELECT user_id FROM users WHERE username = $1)
		)` + groupMedia + `
		ORDER BY m.release_year DESC, m.media_id
		LIMIT $2
	`

	return r.queryMedia(ctx, query, username, recommendationLimit)
}

func (r *Repository) queryMedia(ctx context.Context, query string, args ...any) ([]Media, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	entries := []Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		entries = append(entries, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media: %w", err)
	}

	return entries, nil
}
