package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tidefall/feedrank/internal/post"
	"github.com/tidefall/feedrank/internal/ranking"
	"github.com/tidefall/feedrank/internal/user"
)

// Feed variant labels used for logging and metrics.
const (
	VariantHome      = "home"
	VariantTrending  = "trending"
	VariantDiscovery = "discovery"
)

// Pagination describes the position of a page within the sampled pool.
type Pagination struct {
	Page  int  `json:"page"`
	Limit int  `json:"limit"`
	Total int  `json:"total"`    // scored candidates before diversity sampling
	More  bool `json:"has_more"` // sampled pool extends past this page
}

// Page is one generated feed page. Scores parallels Posts and is exposed
// for observability and debugging.
type Page struct {
	Posts      []*post.Post `json:"posts"`
	Scores     []float64    `json:"scores"`
	Pagination Pagination   `json:"pagination"`
}

// Service is the feed orchestrator. Each request is computed statelessly
// from the configured collaborators; a Service is safe for concurrent use
// and holds no per-request state.
type Service struct {
	posts   post.Repository
	users   user.Repository
	scorer  *ranking.Scorer
	cache   *TrendingCache // optional
	metrics *Metrics       // optional
	logger  *slog.Logger
}

// NewService creates a feed Service. cache and metrics may be nil; a nil
// logger falls back to slog.Default.
func NewService(posts post.Repository, users user.Repository, scorer *ranking.Scorer, cache *TrendingCache, metrics *Metrics, logger *slog.Logger) *Service {
	if scorer == nil {
		scorer = ranking.NewScorer(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		posts:   posts,
		users:   users,
		scorer:  scorer,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// GenerateFeed produces the personalized, ordered, de-duplicated feed page
// for a viewer. The viewer must exist (user.ErrViewerNotFound otherwise);
// store failures are terminal for the request and never produce a partial
// ranking. A page beyond the sampled pool returns an empty page with
// More=false rather than an error.
func (s *Service) GenerateFeed(ctx context.Context, viewerID string, fc Context) (*Page, error) {
	start := time.Now()

	if err := fc.Validate(); err != nil {
		return nil, err
	}

	viewer, err := s.users.GetViewer(ctx, viewerID)
	if err != nil {
		s.observe(VariantHome, StatusFailure, start)
		return nil, fmt.Errorf("load viewer: %w", err)
	}

	cfg := s.scorer.Config()
	candidates, err := s.posts.FindCandidates(ctx, post.CandidateQuery{
		FollowedAuthorIDs: viewer.FollowingIDs,
		ViewerID:          viewer.ID,
		ExcludeIDs:        fc.excludeSet(),
		PoolSize:          cfg.CandidateMultiplier * fc.Limit,
	})
	if err != nil {
		s.observe(VariantHome, StatusFailure, start)
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	seenAuthors := fc.seenAuthorSet()
	scored := make([]ScoredPost, 0, len(candidates))
	for _, p := range candidates {
		s.resolveAuthor(ctx, p)
		score := s.scorer.Score(p, viewer, seenAuthors)
		if score < cfg.MinScore {
			continue
		}
		scored = append(scored, ScoredPost{Post: p, Score: score})
	}

	// Score DESC, ID ASC tie-break for a stable ranking.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Post.ID < scored[j].Post.ID
	})

	total := len(scored)
	sampled := SampleDiverse(scored, cfg.Diversity, cfg.SampleMultiplier*fc.Limit)

	lo := (fc.Page - 1) * fc.Limit
	hi := fc.Page * fc.Limit
	if lo > len(sampled) {
		lo = len(sampled)
	}
	if hi > len(sampled) {
		hi = len(sampled)
	}
	window := sampled[lo:hi]

	page := &Page{
		Posts:  make([]*post.Post, len(window)),
		Scores: make([]float64, len(window)),
		Pagination: Pagination{
			Page:  fc.Page,
			Limit: fc.Limit,
			Total: total,
			More:  fc.Page*fc.Limit < len(sampled),
		},
	}
	for i, sp := range window {
		page.Posts[i] = sp.Post
		page.Scores[i] = sp.Score
	}

	s.observe(VariantHome, StatusSuccess, start)
	s.observePool(len(candidates), len(sampled))
	s.logger.Debug("generated feed",
		"viewer_id", viewerID,
		"page", fc.Page,
		"candidates", len(candidates),
		"scored", total,
		"sampled", len(sampled),
		"returned", len(window))

	return page, nil
}

// TrendingPosts returns the most engaged public posts from the trailing
// 24 hours in store order. It is anonymous: no viewer is loaded and no
// scoring runs. Results are served from the cache when one is configured.
func (s *Service) TrendingPosts(ctx context.Context, limit int) ([]*post.Post, error) {
	start := time.Now()

	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	if s.cache != nil {
		if posts, ok := s.cache.Get(ctx, limit); ok {
			s.observe(VariantTrending, StatusSuccess, start)
			return posts, nil
		}
	}

	posts, err := s.posts.Trending(ctx, limit)
	if err != nil {
		s.observe(VariantTrending, StatusFailure, start)
		return nil, fmt.Errorf("fetch trending posts: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, limit, posts)
	}

	s.observe(VariantTrending, StatusSuccess, start)
	return posts, nil
}

// DiscoveryFeed returns engaged public posts by authors the viewer does not
// follow, in store order. An unknown viewer is treated as anonymous rather
// than an error, so the variant also serves logged-out discovery.
func (s *Service) DiscoveryFeed(ctx context.Context, viewerID string, limit int) ([]*post.Post, error) {
	start := time.Now()

	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	var followed map[string]struct{}
	if viewerID != "" {
		viewer, err := s.users.GetViewer(ctx, viewerID)
		switch {
		case err == nil:
			followed = viewer.FollowingIDs
		case errors.Is(err, user.ErrViewerNotFound):
			// Anonymous discovery.
		default:
			s.observe(VariantDiscovery, StatusFailure, start)
			return nil, fmt.Errorf("load viewer: %w", err)
		}
	}

	posts, err := s.posts.Discovery(ctx, viewerID, followed, limit)
	if err != nil {
		s.observe(VariantDiscovery, StatusFailure, start)
		return nil, fmt.Errorf("fetch discovery posts: %w", err)
	}

	s.observe(VariantDiscovery, StatusSuccess, start)
	return posts, nil
}

// resolveAuthor joins the author summary onto a candidate when retrieval
// did not. A failed lookup leaves the summary nil; scoring then takes its
// no-relationship-data fallback instead of failing the request.
func (s *Service) resolveAuthor(ctx context.Context, p *post.Post) {
	if p.Author != nil || s.users == nil {
		return
	}
	u, err := s.users.GetByID(ctx, p.AuthorID)
	if err != nil {
		return
	}
	summary := &post.AuthorSummary{
		ID:          u.ID,
		Verified:    u.Verified,
		Rank:        u.Rank,
		FollowerIDs: make(map[string]struct{}, len(u.FollowerIDs)),
	}
	for _, id := range u.FollowerIDs {
		summary.FollowerIDs[id] = struct{}{}
	}
	p.Author = summary
}

func (s *Service) observe(variant, status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveRequest(variant, status, time.Since(start))
}

func (s *Service) observePool(candidates, sampled int) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObservePoolSizes(candidates, sampled)
}
