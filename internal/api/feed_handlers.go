package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidefall/feedrank/internal/feed"
	"github.com/tidefall/feedrank/internal/middleware"
	"github.com/tidefall/feedrank/internal/post"
	"github.com/tidefall/feedrank/internal/user"
)

// MaxFeedLimit bounds the page size a client may request.
const MaxFeedLimit = 100

// FeedHandlers holds dependencies for feed HTTP handlers.
type FeedHandlers struct {
	feeds *feed.Service
}

// NewFeedHandlers creates a new FeedHandlers instance.
func NewFeedHandlers(feeds *feed.Service) *FeedHandlers {
	return &FeedHandlers{feeds: feeds}
}

// TrendingResponse is the response body for trending and discovery feeds.
type TrendingResponse struct {
	Posts []*post.Post `json:"posts"`
}

// HandleFeed handles GET /feed.
// Query parameters: page, limit, exclude (comma-separated post IDs),
// seen_authors and seen_tags (comma-separated). The viewer is taken
// from the authenticated context, falling back to the viewer_id query
// parameter; an empty viewer produces an anonymous feed.
func (h *FeedHandlers) HandleFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fc := feed.Context{
		Page:        1,
		Limit:       feed.DefaultLimit,
		ExcludeIDs:  splitParam(r.URL.Query().Get("exclude")),
		SeenAuthors: splitParam(r.URL.Query().Get("seen_authors")),
		SeenTags:    splitParam(r.URL.Query().Get("seen_tags")),
	}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidPage, "page must be a positive integer")
			return
		}
		fc.Page = page
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	fc.Limit = limit

	viewerID := middleware.GetViewerID(ctx)
	if viewerID == "" {
		viewerID = r.URL.Query().Get("viewer_id")
	}

	page, err := h.feeds.GenerateFeed(ctx, viewerID, fc)
	if err != nil {
		writeFeedError(w, r, err)
		return
	}

	WriteJSON(w, ctx, http.StatusOK, page)
}

// HandleTrending handles GET /feed/trending.
func (h *FeedHandlers) HandleTrending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	posts, err := h.feeds.TrendingPosts(ctx, limit)
	if err != nil {
		writeFeedError(w, r, err)
		return
	}

	WriteJSON(w, ctx, http.StatusOK, TrendingResponse{Posts: posts})
}

// HandleDiscovery handles GET /feed/discovery.
func (h *FeedHandlers) HandleDiscovery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	viewerID := middleware.GetViewerID(ctx)
	if viewerID == "" {
		viewerID = r.URL.Query().Get("viewer_id")
	}

	posts, err := h.feeds.DiscoveryFeed(ctx, viewerID, limit)
	if err != nil {
		writeFeedError(w, r, err)
		return
	}

	WriteJSON(w, ctx, http.StatusOK, TrendingResponse{Posts: posts})
}

// parseLimit reads the limit query parameter, writing an error response
// and returning ok=false when it is invalid.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return feed.DefaultLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > MaxFeedLimit {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidLimit, "limit must be between 1 and 100")
		return 0, false
	}
	return limit, true
}

// writeFeedError maps feed service errors to HTTP responses.
func writeFeedError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, user.ErrViewerNotFound):
		WriteError(w, ctx, http.StatusNotFound, ErrCodeViewerNotFound, "Viewer not found")
	case errors.Is(err, feed.ErrInvalidPage):
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidPage, "page must be a positive integer")
	case errors.Is(err, feed.ErrInvalidLimit):
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidLimit, "limit must be a positive integer")
	default:
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to generate feed")
	}
}

// splitParam splits a comma-separated query parameter into trimmed,
// non-empty values. Returns nil for an empty parameter.
func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
