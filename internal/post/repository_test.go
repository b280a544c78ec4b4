package post

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedPost(t *testing.T, repo *InMemoryRepository, p *Post) *Post {
	t.Helper()
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return p
}

func postIDs(posts []*Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func TestInMemoryRepository_CreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	p := &Post{AuthorID: "a1", Content: "hello", Visibility: VisibilityPublic}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID == "" {
		t.Error("expected generated ID")
	}
	if p.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	retrieved, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retrieved.Content != "hello" {
		t.Errorf("Content = %q, want %q", retrieved.Content, "hello")
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}

func TestFindCandidates_Visibility(t *testing.T) {
	repo := NewInMemoryRepository()
	now := time.Now()

	seedPost(t, repo, &Post{ID: "pub", AuthorID: "stranger", Visibility: VisibilityPublic, CreatedAt: now})
	seedPost(t, repo, &Post{ID: "stranger-followers", AuthorID: "stranger", Visibility: VisibilityFollowers, CreatedAt: now})
	seedPost(t, repo, &Post{ID: "followed-followers", AuthorID: "friend", Visibility: VisibilityFollowers, CreatedAt: now})
	seedPost(t, repo, &Post{ID: "followed-private", AuthorID: "friend", Visibility: VisibilityPrivate, CreatedAt: now})
	seedPost(t, repo, &Post{ID: "own-followers", AuthorID: "viewer", Visibility: VisibilityFollowers, CreatedAt: now})
	seedPost(t, repo, &Post{ID: "own-private", AuthorID: "viewer", Visibility: VisibilityPrivate, CreatedAt: now})

	got, err := repo.FindCandidates(context.Background(), CandidateQuery{
		FollowedAuthorIDs: map[string]struct{}{"friend": {}},
		ViewerID:          "viewer",
		PoolSize:          10,
	})
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}

	want := map[string]bool{
		"pub":                true,
		"followed-followers": true,
		"own-followers":      true,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates %v, want %d", len(got), postIDs(got), len(want))
	}
	for _, p := range got {
		if !want[p.ID] {
			t.Errorf("unexpected candidate %q", p.ID)
		}
	}
}

func TestFindCandidates_TierOrdering(t *testing.T) {
	repo := NewInMemoryRepository()
	now := time.Now()

	seedPost(t, repo, &Post{ID: "plain", AuthorID: "s1", Visibility: VisibilityPublic, CreatedAt: now})
	seedPost(t, repo, &Post{ID: "engaged", AuthorID: "s3", Visibility: VisibilityPublic, LikesCount: 11, CommentsCount: 20, CreatedAt: now})
	seedPost(t, repo, &Post{ID: "followed", AuthorID: "friend", Visibility: VisibilityPublic, CreatedAt: now.Add(-time.Hour)})

	got, err := repo.FindCandidates(context.Background(), CandidateQuery{
		FollowedAuthorIDs: map[string]struct{}{"friend": {}},
		ViewerID:          "viewer",
		PoolSize:          10,
	})
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}

	// The followed author sorts first despite being the oldest post.
	wantOrder := []string{"followed", "engaged", "plain"}
	gotOrder := postIDs(got)
	if len(gotOrder) != len(wantOrder) {
		t.Fatalf("got %v, want %v", gotOrder, wantOrder)
	}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Errorf("position %d = %q, want %q (full order %v)", i, gotOrder[i], wantOrder[i], gotOrder)
		}
	}
}

func TestFindCandidates_TierWithinRecency(t *testing.T) {
	repo := NewInMemoryRepository()
	now := time.Now()

	// Same tier, different ages: newest first.
	seedPost(t, repo, &Post{ID: "old", AuthorID: "s1", Visibility: VisibilityPublic, CreatedAt: now.Add(-3 * time.Hour)})
	seedPost(t, repo, &Post{ID: "new", AuthorID: "s2", Visibility: VisibilityPublic, CreatedAt: now})

	got, err := repo.FindCandidates(context.Background(), CandidateQuery{PoolSize: 10})
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	if ids := postIDs(got); len(ids) != 2 || ids[0] != "new" || ids[1] != "old" {
		t.Errorf("order = %v, want [new old]", ids)
	}
}

func TestFindCandidates_PoolSizeTruncation(t *testing.T) {
	repo := NewInMemoryRepository()
	now := time.Now()

	for i := 0; i < 10; i++ {
		seedPost(t, repo, &Post{
			AuthorID:   "s1",
			Visibility: VisibilityPublic,
			CreatedAt:  now.Add(-time.Duration(i) * time.Minute),
		})
	}

	got, err := repo.FindCandidates(context.Background(), CandidateQuery{PoolSize: 4})
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("pool size = %d, want 4", len(got))
	}
}

func TestFindCandidates_ExcludesAndMalformed(t *testing.T) {
	repo := NewInMemoryRepository()
	now := time.Now()

	seedPost(t, repo, &Post{ID: "keep", AuthorID: "s1", Visibility: VisibilityPublic, CreatedAt: now})
	seedPost(t, repo, &Post{ID: "excluded", AuthorID: "s1", Visibility: VisibilityPublic, CreatedAt: now})

	// A zero CreatedAt sneaks in behind Create's defaulting.
	repo.posts["broken"] = &Post{ID: "broken", AuthorID: "s1", Visibility: VisibilityPublic}

	got, err := repo.FindCandidates(context.Background(), CandidateQuery{
		ExcludeIDs: map[string]struct{}{"excluded": {}},
		PoolSize:   10,
	})
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	if ids := postIDs(got); len(ids) != 1 || ids[0] != "keep" {
		t.Errorf("candidates = %v, want [keep]", ids)
	}
}

func TestFindCandidates_CancelledContext(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.FindCandidates(ctx, CandidateQuery{PoolSize: 10}); err == nil {
		t.Error("expected context error")
	}
}

func TestTrending(t *testing.T) {
	repo := NewInMemoryRepository()
	now := time.Now()

	seedPost(t, repo, &Post{ID: "hot", AuthorID: "s1", Visibility: VisibilityPublic, LikesCount: 50, CommentsCount: 25, CreatedAt: now.Add(-time.Hour)})
	seedPost(t, repo, &Post{ID: "warm", AuthorID: "s2", Visibility: VisibilityPublic, LikesCount: 30, CreatedAt: now.Add(-2 * time.Hour)})
	seedPost(t, repo, &Post{ID: "stale", AuthorID: "s3", Visibility: VisibilityPublic, LikesCount: 900, CreatedAt: now.Add(-25 * time.Hour)})
	seedPost(t, repo, &Post{ID: "hidden", AuthorID: "s4", Visibility: VisibilityFollowers, LikesCount: 500, CreatedAt: now.Add(-time.Hour)})

	got, err := repo.Trending(context.Background(), 10)
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}

	if ids := postIDs(got); len(ids) != 2 || ids[0] != "hot" || ids[1] != "warm" {
		t.Errorf("trending = %v, want [hot warm]", ids)
	}
}

func TestTrending_Limit(t *testing.T) {
	repo := NewInMemoryRepository()
	now := time.Now()

	for i := 0; i < 5; i++ {
		seedPost(t, repo, &Post{
			AuthorID:   "s1",
			Visibility: VisibilityPublic,
			LikesCount: i,
			CreatedAt:  now.Add(-time.Hour),
		})
	}

	got, err := repo.Trending(context.Background(), 3)
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestDiscovery(t *testing.T) {
	repo := NewInMemoryRepository()
	now := time.Now()

	seedPost(t, repo, &Post{ID: "new-author", AuthorID: "stranger", Visibility: VisibilityPublic, LikesCount: 5, CreatedAt: now})
	seedPost(t, repo, &Post{ID: "followed", AuthorID: "friend", Visibility: VisibilityPublic, LikesCount: 50, CreatedAt: now})
	seedPost(t, repo, &Post{ID: "own", AuthorID: "viewer", Visibility: VisibilityPublic, LikesCount: 50, CreatedAt: now})
	seedPost(t, repo, &Post{ID: "hidden", AuthorID: "stranger", Visibility: VisibilityPrivate, LikesCount: 50, CreatedAt: now})

	got, err := repo.Discovery(context.Background(), "viewer", map[string]struct{}{"friend": {}}, 10)
	if err != nil {
		t.Fatalf("Discovery failed: %v", err)
	}
	if ids := postIDs(got); len(ids) != 1 || ids[0] != "new-author" {
		t.Errorf("discovery = %v, want [new-author]", ids)
	}
}

func TestDiscovery_AnonymousSeesEverythingPublic(t *testing.T) {
	repo := NewInMemoryRepository()
	now := time.Now()

	seedPost(t, repo, &Post{ID: "p1", AuthorID: "s1", Visibility: VisibilityPublic, CreatedAt: now})
	seedPost(t, repo, &Post{ID: "p2", AuthorID: "s2", Visibility: VisibilityPublic, CreatedAt: now})

	got, err := repo.Discovery(context.Background(), "", nil, 10)
	if err != nil {
		t.Fatalf("Discovery failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestEngagement(t *testing.T) {
	p := &Post{LikesCount: 10, CommentsCount: 5}
	if got := p.Engagement(); got != 20 {
		t.Errorf("Engagement = %d, want 20", got)
	}
}

func TestMalformed(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		p    Post
		want bool
	}{
		{"valid", Post{ID: "p1", CreatedAt: now}, false},
		{"missing ID", Post{CreatedAt: now}, true},
		{"zero timestamp", Post{ID: "p1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Malformed(); got != tt.want {
				t.Errorf("Malformed = %v, want %v", got, tt.want)
			}
		})
	}
}
