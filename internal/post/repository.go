package post

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors for post operations.
var (
	ErrPostNotFound = errors.New("post not found")
)

// TrendingWindow is how far back the trending feed looks.
const TrendingWindow = 24 * time.Hour

// Candidate priority tiers. Tiers order and truncate the candidate pool
// only; they are discarded before scoring and never influence the final
// ranking.
const (
	tierNone      = 0
	tierHighLikes = 1 // likes above likeTierThreshold
	tierEngaged   = 2 // engagement above engagementTierThreshold
	tierFollowed  = 3 // authored by a followed user
)

// Thresholds for the engagement and like tiers.
const (
	engagementTierThreshold = 50
	likeTierThreshold       = 100
)

// CandidateQuery bounds a candidate-pool fetch.
type CandidateQuery struct {
	// FollowedAuthorIDs biases the pool toward followed authors and widens
	// their allowed visibility to followers-only posts. Nil for anonymous
	// viewers.
	FollowedAuthorIDs map[string]struct{}

	// ViewerID lets the viewer's own posts pass the followers-only
	// visibility check.
	ViewerID string

	// ExcludeIDs are post IDs that must never appear in the pool.
	ExcludeIDs map[string]struct{}

	// PoolSize caps the number of candidates returned.
	PoolSize int
}

// Repository defines the post store operations consumed by feed generation.
type Repository interface {
	// FindCandidates returns a bounded pool of scoreable posts: posts by
	// followed authors with public or followers visibility, plus public
	// posts by anyone else. Results carry joined author summaries and are
	// ordered by priority tier, newest first within a tier, truncated to
	// q.PoolSize. Malformed records are dropped.
	FindCandidates(ctx context.Context, q CandidateQuery) ([]*Post, error)

	// Trending returns public posts created within TrendingWindow, ordered
	// by engagement descending, truncated to limit.
	Trending(ctx context.Context, limit int) ([]*Post, error)

	// Discovery returns public posts by authors the viewer does not follow,
	// ordered by engagement descending, truncated to limit. followedIDs may
	// be nil.
	Discovery(ctx context.Context, viewerID string, followedIDs map[string]struct{}, limit int) ([]*Post, error)

	// GetByID retrieves a post by ID.
	GetByID(ctx context.Context, id string) (*Post, error)

	// Create inserts a new post, generating an ID when absent.
	Create(ctx context.Context, p *Post) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu    sync.RWMutex
	posts map[string]*Post
}

// NewInMemoryRepository creates a new in-memory post repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		posts: make(map[string]*Post),
	}
}

// Create inserts a new post, generating a UUID when no ID is provided.
func (r *InMemoryRepository) Create(ctx context.Context, p *Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	postCopy := *p
	r.posts[p.ID] = &postCopy
	return nil
}

// GetByID retrieves a post by its ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}

	postCopy := *p
	return &postCopy, nil
}

// FindCandidates returns a bounded, tier-ordered candidate pool.
func (r *InMemoryRepository) FindCandidates(ctx context.Context, q CandidateQuery) ([]*Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	type tiered struct {
		post *Post
		tier int
	}
	var candidates []tiered

	for _, p := range r.posts {
		// Malformed records are dropped, never fatal.
		if p.Malformed() {
			continue
		}

		if q.ExcludeIDs != nil {
			if _, excluded := q.ExcludeIDs[p.ID]; excluded {
				continue
			}
		}

		_, followed := q.FollowedAuthorIDs[p.AuthorID]
		if !candidateVisible(p, followed, q.ViewerID) {
			continue
		}

		candidates = append(candidates, tiered{post: p, tier: candidateTier(p, followed)})
	}

	// Tier DESC, then created_at DESC, then ID ASC for stable truncation.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].tier != candidates[j].tier {
			return candidates[i].tier > candidates[j].tier
		}
		if !candidates[i].post.CreatedAt.Equal(candidates[j].post.CreatedAt) {
			return candidates[i].post.CreatedAt.After(candidates[j].post.CreatedAt)
		}
		return candidates[i].post.ID < candidates[j].post.ID
	})

	if q.PoolSize > 0 && len(candidates) > q.PoolSize {
		candidates = candidates[:q.PoolSize]
	}

	// The tier is discarded here; only store order survives into scoring.
	results := make([]*Post, len(candidates))
	for i, c := range candidates {
		postCopy := *c.post
		results[i] = &postCopy
	}
	return results, nil
}

// Trending returns recent public posts ordered by engagement.
func (r *InMemoryRepository) Trending(ctx context.Context, limit int) ([]*Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().Add(-TrendingWindow)

	var candidates []*Post
	for _, p := range r.posts {
		if p.Malformed() {
			continue
		}
		if p.Visibility != VisibilityPublic {
			continue
		}
		if p.CreatedAt.Before(cutoff) {
			continue
		}
		candidates = append(candidates, p)
	}

	sortByEngagementDesc(candidates)

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return copyPosts(candidates), nil
}

// Discovery returns public posts by authors the viewer does not follow,
// ordered by engagement.
func (r *InMemoryRepository) Discovery(ctx context.Context, viewerID string, followedIDs map[string]struct{}, limit int) ([]*Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []*Post
	for _, p := range r.posts {
		if p.Malformed() {
			continue
		}
		if p.Visibility != VisibilityPublic {
			continue
		}
		if p.AuthorID == viewerID {
			continue
		}
		if _, followed := followedIDs[p.AuthorID]; followed {
			continue
		}
		candidates = append(candidates, p)
	}

	sortByEngagementDesc(candidates)

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return copyPosts(candidates), nil
}

// candidateVisible applies the retrieval visibility contract: followed
// authors expose public and followers-only posts, everyone else only public
// ones. A viewer always sees their own non-private posts.
func candidateVisible(p *Post, followed bool, viewerID string) bool {
	if viewerID != "" && p.AuthorID == viewerID {
		return p.Visibility != VisibilityPrivate
	}
	if followed {
		return p.Visibility == VisibilityPublic || p.Visibility == VisibilityFollowers
	}
	return p.Visibility == VisibilityPublic
}

// candidateTier assigns the coarse pool-ordering tier.
func candidateTier(p *Post, followed bool) int {
	switch {
	case followed:
		return tierFollowed
	case p.Engagement() > engagementTierThreshold:
		return tierEngaged
	case p.LikesCount > likeTierThreshold:
		return tierHighLikes
	default:
		return tierNone
	}
}

// sortByEngagementDesc sorts posts by engagement DESC, created_at DESC,
// then ID ASC for tie-breaking.
func sortByEngagementDesc(posts []*Post) {
	sort.Slice(posts, func(i, j int) bool {
		ei, ej := posts[i].Engagement(), posts[j].Engagement()
		if ei != ej {
			return ei > ej
		}
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
}

// copyPosts returns deep copies to prevent external mutation.
func copyPosts(posts []*Post) []*Post {
	copies := make([]*Post, len(posts))
	for i, p := range posts {
		postCopy := *p
		copies[i] = &postCopy
	}
	return copies
}
