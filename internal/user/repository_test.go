package user

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryRepository_Create(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	u := &User{Handle: "alice"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if u.ID == "" {
		t.Error("expected generated ID")
	}
	if u.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	retrieved, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retrieved.Handle != "alice" {
		t.Errorf("Handle = %q, want %q", retrieved.Handle, "alice")
	}
}

func TestInMemoryRepository_CreateDuplicate(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	u := &User{ID: "u1", Handle: "alice"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := repo.Create(ctx, &User{ID: "u1", Handle: "impostor"})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestInMemoryRepository_GetViewer(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	u := &User{
		ID:           "u1",
		Handle:       "alice",
		Rank:         RankRespected,
		FollowingIDs: []string{"u2", "u3"},
		FollowerIDs:  []string{"u2"},
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	v, err := repo.GetViewer(ctx, "u1")
	if err != nil {
		t.Fatalf("GetViewer failed: %v", err)
	}

	if v.ID != "u1" {
		t.Errorf("ID = %q, want %q", v.ID, "u1")
	}
	if v.Rank != RankRespected {
		t.Errorf("Rank = %v, want %v", v.Rank, RankRespected)
	}
	if !v.Follows("u2") || !v.Follows("u3") {
		t.Error("expected viewer to follow u2 and u3")
	}
	if v.Follows("u4") {
		t.Error("viewer should not follow u4")
	}
	if !v.FollowedBy("u2") {
		t.Error("expected viewer to be followed by u2")
	}
}

func TestInMemoryRepository_GetViewerNotFound(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := repo.GetViewer(context.Background(), "missing")
	if !errors.Is(err, ErrViewerNotFound) {
		t.Errorf("expected ErrViewerNotFound, got %v", err)
	}
}

func TestInMemoryRepository_GetByIDReturnsCopy(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, &User{ID: "u1", Handle: "alice"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first, _ := repo.GetByID(ctx, "u1")
	first.Handle = "mutated"

	second, _ := repo.GetByID(ctx, "u1")
	if second.Handle != "alice" {
		t.Errorf("stored record mutated through returned copy: %q", second.Handle)
	}
}

func TestViewer_NilSafety(t *testing.T) {
	var v *Viewer
	if v.Follows("anyone") {
		t.Error("nil viewer should follow nobody")
	}
	if v.FollowedBy("anyone") {
		t.Error("nil viewer should have no followers")
	}
	if v.Following() != nil {
		t.Error("nil viewer Following() should be nil")
	}
}
