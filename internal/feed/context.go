// Package feed composes candidate retrieval, scoring, and diversity
// sampling into personalized feed pages.
package feed

import "errors"

// Validation errors for feed requests.
var (
	ErrInvalidPage  = errors.New("page must be at least 1")
	ErrInvalidLimit = errors.New("limit must be positive")
)

// DefaultLimit is the page size used when a request does not specify one.
const DefaultLimit = 20

// Context carries the per-request parameters for a feed page. SeenAuthors
// and SeenTags record what the client was already shown this session; they
// feed the novelty boost only and are never a hard filter, unlike
// ExcludeIDs which are removed at retrieval.
type Context struct {
	Page        int      `json:"page"`
	Limit       int      `json:"limit"`
	ExcludeIDs  []string `json:"exclude_ids,omitempty"`
	SeenAuthors []string `json:"seen_authors,omitempty"`
	SeenTags    []string `json:"seen_tags,omitempty"`
}

// Validate checks the pagination parameters.
func (c *Context) Validate() error {
	if c.Page < 1 {
		return ErrInvalidPage
	}
	if c.Limit < 1 {
		return ErrInvalidLimit
	}
	return nil
}

// excludeSet returns ExcludeIDs as a membership set, nil when empty.
func (c *Context) excludeSet() map[string]struct{} {
	if len(c.ExcludeIDs) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(c.ExcludeIDs))
	for _, id := range c.ExcludeIDs {
		set[id] = struct{}{}
	}
	return set
}

// seenAuthorSet returns SeenAuthors as a membership set. The set is always
// non-nil because a Context was supplied, which is what arms the novelty
// boost.
func (c *Context) seenAuthorSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.SeenAuthors))
	for _, id := range c.SeenAuthors {
		set[id] = struct{}{}
	}
	return set
}
