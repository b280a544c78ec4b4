// Package post provides the post model and the candidate-retrieval
// repository backing feed generation.
package post

import (
	"strings"
	"time"

	"github.com/tidefall/feedrank/internal/user"
)

// Visibility controls who may see a post.
type Visibility string

// Supported visibility levels.
const (
	VisibilityPublic    Visibility = "public"
	VisibilityFollowers Visibility = "followers"
	VisibilityPrivate   Visibility = "private"
)

// Attachment represents a media attachment on a post.
type Attachment struct {
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`       // MIME type (e.g., "image/jpeg")
	SizeBytes int64  `json:"size_bytes,omitempty"` // File size in bytes

	// Image-specific metadata (populated for image/* types)
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
}

// LinkPreview holds the unfurled metadata for an external link.
type LinkPreview struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// PollOption is a single choice in a poll.
type PollOption struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Poll is an inline poll attached to a post.
type Poll struct {
	Question string       `json:"question"`
	Options  []PollOption `json:"options"`
	EndsAt   *time.Time   `json:"ends_at,omitempty"`
}

// AuthorSummary is the ranking-relevant projection of a post's author,
// joined onto each candidate before scoring. Scoring falls back to its
// no-relationship-data branch when the summary is absent.
type AuthorSummary struct {
	ID          string              `json:"id"`
	Verified    bool                `json:"verified"`
	Rank        user.Rank           `json:"rank"`
	FollowerIDs map[string]struct{} `json:"-"`
}

// HasFollower reports whether the given user follows this author.
func (a *AuthorSummary) HasFollower(userID string) bool {
	if a == nil {
		return false
	}
	_, ok := a.FollowerIDs[userID]
	return ok
}

// Post is a content post. The feed engine treats posts as read-only input;
// counters and PopularityScore are maintained by the store layer.
type Post struct {
	ID       string         `json:"id"`
	AuthorID string         `json:"author_id"`
	Author   *AuthorSummary `json:"author,omitempty"`

	Content string       `json:"content"`
	Media   []Attachment `json:"media,omitempty"`
	Tags    []string     `json:"tags,omitempty"`

	LikesCount    int `json:"likes_count"`
	CommentsCount int `json:"comments_count"`
	ViewsCount    int `json:"views_count"`

	// Optional fields consumed only by quality scoring.
	Location       string       `json:"location,omitempty"`
	LinkPreview    *LinkPreview `json:"link_preview,omitempty"`
	Poll           *Poll        `json:"poll,omitempty"`
	ContentWarning bool         `json:"content_warning,omitempty"`

	// PopularityScore is precomputed by the store layer and consumed, never
	// written, by the feed engine.
	PopularityScore float64 `json:"popularity_score"`

	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Engagement returns the weighted interaction count used for candidate
// tiering and trending sorts: likes plus double-weighted comments.
func (p *Post) Engagement() int {
	return p.LikesCount + 2*p.CommentsCount
}

// WordCount returns the number of whitespace-separated words in the content.
func (p *Post) WordCount() int {
	return len(strings.Fields(p.Content))
}

// Malformed reports whether the post is missing fields required for scoring.
// Malformed candidates are excluded from the pool rather than failing the
// request.
func (p *Post) Malformed() bool {
	return p.ID == "" || p.CreatedAt.IsZero()
}
