package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tidefall/feedrank/internal/feed"
	"github.com/tidefall/feedrank/internal/post"
	"github.com/tidefall/feedrank/internal/user"
)

func newTestHandlers(t *testing.T) (*FeedHandlers, *post.InMemoryRepository, *user.InMemoryRepository) {
	t.Helper()
	posts := post.NewInMemoryRepository()
	users := user.NewInMemoryRepository()
	service := feed.NewService(posts, users, nil, nil, nil, nil)
	return NewFeedHandlers(service), posts, users
}

func seedFeedData(t *testing.T, posts *post.InMemoryRepository, users *user.InMemoryRepository) {
	t.Helper()
	ctx := context.Background()

	if err := users.Create(ctx, &user.User{ID: "viewer", Handle: "viewer"}); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
	now := time.Now()
	for i := 0; i < 5; i++ {
		err := posts.Create(ctx, &post.Post{
			ID:         fmt.Sprintf("p%d", i),
			AuthorID:   fmt.Sprintf("a%d", i),
			Content:    "hello",
			LikesCount: i,
			Visibility: post.VisibilityPublic,
			CreatedAt:  now.Add(-time.Hour),
		})
		if err != nil {
			t.Fatalf("Create post failed: %v", err)
		}
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body not JSON: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func TestHandleFeed(t *testing.T) {
	h, posts, users := newTestHandlers(t)
	seedFeedData(t, posts, users)

	req := httptest.NewRequest(http.MethodGet, "/feed?viewer_id=viewer&limit=3", nil)
	rec := httptest.NewRecorder()
	h.HandleFeed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var page feed.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if len(page.Posts) != 3 {
		t.Errorf("len(Posts) = %d, want 3", len(page.Posts))
	}
	if page.Pagination.Limit != 3 || page.Pagination.Page != 1 {
		t.Errorf("pagination = %+v", page.Pagination)
	}
	if !page.Pagination.More {
		t.Error("expected has_more=true with 5 sampled posts and limit 3")
	}
}

func TestHandleFeed_UnknownViewer(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/feed?viewer_id=ghost", nil)
	rec := httptest.NewRecorder()
	h.HandleFeed(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error.Code != ErrCodeViewerNotFound {
		t.Errorf("code = %q, want %q", resp.Error.Code, ErrCodeViewerNotFound)
	}
}

func TestHandleFeed_InvalidParams(t *testing.T) {
	h, posts, users := newTestHandlers(t)
	seedFeedData(t, posts, users)

	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"zero page", "viewer_id=viewer&page=0", ErrCodeInvalidPage},
		{"non-numeric page", "viewer_id=viewer&page=abc", ErrCodeInvalidPage},
		{"zero limit", "viewer_id=viewer&limit=0", ErrCodeInvalidLimit},
		{"limit too large", "viewer_id=viewer&limit=101", ErrCodeInvalidLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed?"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.HandleFeed(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if resp := decodeError(t, rec); resp.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestHandleFeed_ExcludeParam(t *testing.T) {
	h, posts, users := newTestHandlers(t)
	seedFeedData(t, posts, users)

	req := httptest.NewRequest(http.MethodGet, "/feed?viewer_id=viewer&exclude=p0,p1", nil)
	rec := httptest.NewRecorder()
	h.HandleFeed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var page feed.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	for _, p := range page.Posts {
		if p.ID == "p0" || p.ID == "p1" {
			t.Errorf("excluded post %q in response", p.ID)
		}
	}
}

func TestHandleTrending(t *testing.T) {
	h, posts, users := newTestHandlers(t)
	seedFeedData(t, posts, users)

	req := httptest.NewRequest(http.MethodGet, "/feed/trending?limit=2", nil)
	rec := httptest.NewRecorder()
	h.HandleTrending(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp TrendingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if len(resp.Posts) != 2 {
		t.Errorf("len(Posts) = %d, want 2", len(resp.Posts))
	}
	// Engagement descending: p4 has the most likes.
	if resp.Posts[0].ID != "p4" {
		t.Errorf("first = %q, want p4", resp.Posts[0].ID)
	}
}

func TestHandleDiscovery(t *testing.T) {
	h, posts, users := newTestHandlers(t)
	seedFeedData(t, posts, users)

	// Unknown viewer is served anonymously, not rejected.
	req := httptest.NewRequest(http.MethodGet, "/feed/discovery?viewer_id=ghost", nil)
	rec := httptest.NewRecorder()
	h.HandleDiscovery(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp TrendingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if len(resp.Posts) != 5 {
		t.Errorf("len(Posts) = %d, want 5", len(resp.Posts))
	}
}

func TestSplitParam(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ", []string{"a", "b"}},
		{",,", nil},
	}
	for _, tt := range tests {
		got := splitParam(tt.raw)
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("splitParam(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestWriteError_Format(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, context.Background(), http.StatusNotFound, ErrCodeNotFound, "nope")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	resp := decodeError(t, rec)
	if resp.Error.Code != ErrCodeNotFound || resp.Error.Message != "nope" {
		t.Errorf("body = %+v", resp)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeViewerNotFound, http.StatusNotFound},
		{ErrCodeAuthFailed, http.StatusUnauthorized},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"unknown", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusCodeMapping(tt.code); got != tt.want {
			t.Errorf("StatusCodeMapping(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
