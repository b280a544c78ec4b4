package ranking

import (
	"time"

	"github.com/tidefall/feedrank/internal/post"
	"github.com/tidefall/feedrank/internal/user"
)

// MaxScore is the upper bound of the final scaled score.
const MaxScore = 100.0

// Scorer combines the five score factors into a final 0-100 score using an
// immutable configuration. A Scorer is stateless apart from its config and
// clock and is safe for concurrent use.
type Scorer struct {
	cfg *Config
	now func() time.Time
}

// NewScorer creates a Scorer with the given configuration. A nil config
// uses the defaults.
func NewScorer(cfg *Config) *Scorer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Scorer{
		cfg: cfg,
		now: time.Now,
	}
}

// Config returns the scorer's configuration.
func (s *Scorer) Config() *Config {
	return s.cfg
}

// WithClock returns a copy of the scorer that uses the given clock.
// Intended for tests.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	return &Scorer{cfg: s.cfg, now: now}
}

// Combined returns the pre-boost weighted sum of the five factors, in
// [0, 1] as long as the configured weights sum to at most 1.
func (s *Scorer) Combined(p *post.Post, viewer *user.Viewer) float64 {
	w := s.cfg.Weights
	return w.Recency*RecencyScore(p, s.now(), s.cfg.Decay) +
		w.Engagement*EngagementScore(p) +
		w.Relationship*RelationshipScore(p, viewer) +
		w.Quality*QualityScore(p) +
		w.Relevance*RelevanceScore(p, viewer)
}

// Score computes the final 0-100 score for a candidate post. seenAuthors is
// the set of author IDs the client has already been shown this session; a
// nil set means no feed context was supplied and the novelty boost is
// skipped entirely.
//
// Boosts compound in a fixed order: freshness, then popularity, then
// novelty. The order matters because each multiplies the prior value.
func (s *Scorer) Score(p *post.Post, viewer *user.Viewer, seenAuthors map[string]struct{}) float64 {
	total := s.Combined(p, viewer)
	b := s.cfg.Boosts

	// Freshness tiers are mutually exclusive, first match wins.
	age := s.now().Sub(p.CreatedAt)
	if age < time.Hour {
		total *= b.FreshHour
	} else if age < 6*time.Hour {
		total *= b.FreshSixHours
	}

	if p.PopularityScore > b.PopularityThreshold {
		total *= b.Popular
	}

	if seenAuthors != nil {
		if _, seen := seenAuthors[p.AuthorID]; !seen {
			total *= b.Novelty
		}
	}

	return clampScore(total * MaxScore)
}

// clampScore clamps v to the [0, MaxScore] range.
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
