package database_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"medialist/internal/database"
	"medialist/internal/database/dbtest"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestNewRequiresDSN(t *testing.T) {
	if _, err := database.New(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !database.IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("expected 23505 to be a unique violation")
	}
	if database.IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("expected foreign key violation not to match")
	}
	if database.IsUniqueViolation(errors.New("duplicate key value")) {
		t.Error("expected plain error not to match")
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !database.IsForeignKeyViolation(fmt.Errorf("insert rating: %w", &pgconn.PgError{Code: "23503"})) {
		t.Error("expected wrapped 23503 to be a foreign key violation")
	}
	if database.IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("expected unique violation not to match")
	}
}

func TestSchemaAndHealth(t *testing.T) {
	db := dbtest.Start(t)
	ctx := context.Background()

	// applying twice must be harmless
	if err := database.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema returned error on second run: %v", err)
	}

	var tables int
	err := db.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_name IN ('users', 'genres', 'media_entries', 'media_genres',
			'favorites', 'ratings', 'rating_likes')
	`).Scan(&tables)
	if err != nil {
		t.Fatalf("failed to count tables: %v", err)
	}
	if tables != 7 {
		t.Fatalf("expected all seven tables, found %d", tables)
	}

	health := db.Health(ctx)
	if health["status"] != "up" {
		t.Fatalf("expected database up, got %v", health)
	}
}
