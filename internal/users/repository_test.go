package users_test

import (
	"context"
	"errors"
	"testing"

	"medialist/internal/database/dbtest"
	"medialist/internal/users"
)

func TestRepositoryIntegration(t *testing.T) {
	db := dbtest.Start(t)
	repo := users.NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", "hash-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID == 0 || created.IsAdmin {
		t.Errorf("unexpected created user: %+v", created)
	}

	if _, err := repo.Create(ctx, "alice", "hash-2"); !errors.Is(err, users.ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}

	if err := repo.SetAdmin(ctx, "alice", true); err != nil {
		t.Fatalf("SetAdmin returned error: %v", err)
	}
	if err := repo.UpdatePassword(ctx, "alice", "hash-3"); err != nil {
		t.Fatalf("UpdatePassword returned error: %v", err)
	}

	got, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername returned error: %v", err)
	}
	if !got.IsAdmin || got.PasswordHash != "hash-3" {
		t.Errorf("unexpected stored user: %+v", got)
	}

	if err := repo.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := repo.GetByUsername(ctx, "alice"); !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "alice"); !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
	if err := repo.SetAdmin(ctx, "nobody", true); !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for SetAdmin, got %v", err)
	}
}
