package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/MGeorge0116/ezchat-cam/internal/config"
	"github.com/MGeorge0116/ezchat-cam/internal/database"
	"github.com/MGeorge0116/ezchat-cam/internal/domain"
)

func newTestRepo(t *testing.T) *GormUserRepository {
	t.Helper()
	db, err := database.New(config.DatabaseConfig{
		Driver:   "sqlite",
		FilePath: ":memory:",
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := database.AutoMigrate(db, &domain.UserModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormUserRepository(db)
}

func TestUserRepo_CreateNormalizes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.Create(ctx, " Alice ", "Alice@Example.COM", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Username != "alice" || user.Email != "alice@example.com" {
		t.Errorf("expected lowercase identity, got %+v", user)
	}
	if user.ID == "" {
		t.Error("expected a generated ID")
	}
}

func TestUserRepo_DuplicateUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "alice", "alice@example.com", "hash"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, "ALICE", "other@example.com", "hash"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserRepo_GetByUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	row, err := repo.GetByUsername(ctx, "ALICE")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.ID != created.ID || row.PasswordHash != "hash" {
		t.Errorf("unexpected row: %+v", row)
	}

	if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepo_GetByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	user, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("unexpected user: %+v", user)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
