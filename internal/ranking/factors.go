package ranking

import (
	"math"
	"time"

	"github.com/tidefall/feedrank/internal/post"
	"github.com/tidefall/feedrank/internal/user"
)

// Baseline values used by the fallback branches of the factor functions.
const (
	// anonymousRelationship is the flat relationship score for anonymous
	// viewers and the starting value for authenticated ones.
	anonymousRelationship = 0.1

	// qualityFallback is the quality score for posts with no quality
	// signals at all.
	qualityFallback = 0.1

	// relevanceBaseline is the constant relevance stub value.
	relevanceBaseline = 0.1
)

// Relationship score increments.
const (
	followBonus = 0.6
	mutualBonus = 0.2
)

// Quality signal increments.
const (
	qualityMedia       = 0.3
	qualityMultiMedia  = 0.1
	qualityLongText    = 0.3 // more than 100 words
	qualityMediumText  = 0.2 // more than 50 words
	qualityShortText   = 0.1 // more than 20 words
	qualityPerTag      = 0.05
	qualityTagCap      = 0.2
	qualityLocation    = 0.1
	qualityLinkPreview = 0.15
	qualityPoll        = 0.2
	qualityWarning     = 0.1
	qualityVerified    = 0.15
)

// engagementLogScale divides the log-normalized engagement so that roughly
// 100k interactions saturate the factor.
const engagementLogScale = 5

// RecencyScore computes the exponential time-decay factor for a post.
// Returns 1.0 at age zero, decaying by the configured factor per half-life
// (default: halves every 24h * ln(2)/0.5). The result is clamped to [0, 1]
// so clock skew on freshly created posts cannot push it above 1.
func RecencyScore(p *post.Post, now time.Time, decay Decay) float64 {
	ageHours := now.Sub(p.CreatedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	halfLives := ageHours / decay.HalfLifeHours
	return clamp01(math.Exp(-halfLives * decay.Factor))
}

// EngagementScore computes the interaction-volume factor. Comments count
// double against likes; the sum is log-normalized so the factor grows with
// diminishing returns. When view counts are available, the raw interaction
// rate is averaged in. log10(base+1) guards against log(0): a post with no
// interactions scores exactly 0.
func EngagementScore(p *post.Post) float64 {
	base := float64(p.LikesCount + 2*p.CommentsCount)
	normalized := math.Log10(base+1) / engagementLogScale

	score := normalized
	if p.ViewsCount > 0 {
		rate := base / float64(p.ViewsCount)
		score = (normalized + rate) / 2
	}
	return clamp01(score)
}

// RelationshipScore computes the follow-graph affinity factor. An anonymous
// viewer gets a flat baseline for every post; a viewer's own post always
// scores 1.0. Otherwise the baseline accrues a follow bonus, a mutual-follow
// bonus, and an author rank bonus, averaged over the bonuses that fired.
// A missing author summary simply skips the rank bonus.
func RelationshipScore(p *post.Post, viewer *user.Viewer) float64 {
	if viewer == nil {
		return anonymousRelationship
	}
	if p.AuthorID == viewer.ID {
		return 1.0
	}

	score := anonymousRelationship
	factors := 0

	if viewer.Follows(p.AuthorID) {
		score += followBonus
		factors++

		if viewer.FollowedBy(p.AuthorID) {
			score += mutualBonus
			factors++
		}
	}

	if p.Author != nil {
		score += p.Author.Rank.Bonus()
		factors++
	}

	if factors > 0 {
		return score / float64(factors)
	}
	return score
}

// QualityScore computes the content-signal heuristic. Each independent
// signal adds a fixed increment and counts as one factor; the result is the
// average over fired signals. Word-count tiers are mutually exclusive with
// the highest tier winning. Posts with no signals at all get a flat
// fallback.
func QualityScore(p *post.Post) float64 {
	score := 0.0
	factors := 0

	if len(p.Media) > 0 {
		score += qualityMedia
		factors++
	}
	if len(p.Media) > 1 {
		score += qualityMultiMedia
		factors++
	}

	switch words := p.WordCount(); {
	case words > 100:
		score += qualityLongText
		factors++
	case words > 50:
		score += qualityMediumText
		factors++
	case words > 20:
		score += qualityShortText
		factors++
	}

	if len(p.Tags) > 0 {
		tagBonus := qualityPerTag * float64(len(p.Tags))
		if tagBonus > qualityTagCap {
			tagBonus = qualityTagCap
		}
		score += tagBonus
		factors++
	}

	if p.Location != "" {
		score += qualityLocation
		factors++
	}
	if p.LinkPreview != nil {
		score += qualityLinkPreview
		factors++
	}
	if p.Poll != nil {
		score += qualityPoll
		factors++
	}
	if p.ContentWarning {
		score += qualityWarning
		factors++
	}
	if p.Author != nil && p.Author.Verified {
		score += qualityVerified
		factors++
	}

	if factors == 0 {
		return qualityFallback
	}
	return score / float64(factors)
}

// RelevanceScore is the personalization extension point. It returns a
// constant baseline today; a future implementation may replace it with
// topic affinity. Callers must not depend on anything beyond a value in
// [0, 1].
func RelevanceScore(p *post.Post, viewer *user.Viewer) float64 {
	return relevanceBaseline
}

// clamp01 clamps v to the [0, 1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
