package ratings_test

import (
	"context"
	"errors"
	"testing"

	"medialist/internal/database/dbtest"
	"medialist/internal/media"
	"medialist/internal/ratings"
	"medialist/internal/users"
)

func TestRepositoryIntegration(t *testing.T) {
	db := dbtest.Start(t)
	repo := ratings.NewRepository(db)
	ctx := context.Background()

	userRepo := users.NewRepository(db)
	for _, name := range []string{"alice", "bob"} {
		if _, err := userRepo.Create(ctx, name, "hash"); err != nil {
			t.Fatalf("Create user %s returned error: %v", name, err)
		}
	}
	entry, err := media.NewRepository(db).Create(ctx, "bob", media.Media{Title: "Heat"})
	if err != nil {
		t.Fatalf("Create media returned error: %v", err)
	}

	rating, err := repo.Create(ctx, "alice", entry.ID, 4, "tense")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := repo.Create(ctx, "alice", entry.ID, 2, ""); !errors.Is(err, ratings.ErrAlreadyRated) {
		t.Fatalf("expected ErrAlreadyRated, got %v", err)
	}
	if _, err := repo.Create(ctx, "alice", 9999, 2, ""); !errors.Is(err, ratings.ErrMediaNotFound) {
		t.Fatalf("expected ErrMediaNotFound, got %v", err)
	}
	if _, err := repo.Create(ctx, "ghost", entry.ID, 2, ""); !errors.Is(err, ratings.ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}

	got, err := repo.GetByID(ctx, rating.ID)
	if err != nil || got.Username != "alice" || got.Score != 4 || got.IsConfirmed {
		t.Fatalf("GetByID = %+v, %v", got, err)
	}

	score := 5
	if err := repo.Update(ctx, rating.ID, &score, nil); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := repo.Confirm(ctx, rating.ID); err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	got, _ = repo.GetByID(ctx, rating.ID)
	if got.Score != 5 || got.Comment != "tense" || !got.IsConfirmed {
		t.Errorf("unexpected rating after update: %+v", got)
	}

	for _, want := range []bool{true, false, true} {
		liked, err := repo.ToggleLike(ctx, "bob", rating.ID)
		if err != nil || liked != want {
			t.Fatalf("ToggleLike = %v, %v; want %v", liked, err, want)
		}
	}
	if _, err := repo.ToggleLike(ctx, "bob", 9999); !errors.Is(err, ratings.ErrRatingNotFound) {
		t.Fatalf("expected ErrRatingNotFound, got %v", err)
	}

	if err := repo.Delete(ctx, rating.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := repo.Delete(ctx, rating.ID); !errors.Is(err, ratings.ErrRatingNotFound) {
		t.Fatalf("expected ErrRatingNotFound on second delete, got %v", err)
	}
	if err := repo.Confirm(ctx, rating.ID); !errors.Is(err, ratings.ErrRatingNotFound) {
		t.Fatalf("expected ErrRatingNotFound on confirm, got %v", err)
	}

	var likes int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM rating_likes`).Scan(&likes); err != nil || likes != 0 {
		t.Errorf("expected likes to cascade, found %d (%v)", likes, err)
	}
}
