package feed

import (
	"github.com/tidefall/feedrank/internal/post"
	"github.com/tidefall/feedrank/internal/ranking"
)

// ScoredPost pairs a candidate post with its final score for the lifetime
// of one request. Never persisted.
type ScoredPost struct {
	Post  *post.Post
	Score float64
}

// SampleDiverse runs a single greedy forward pass over score-sorted
// candidates, capping how often any one author or tag may appear. A
// candidate is skipped, without advancing any counter, when its author has
// already hit caps.MaxPerAuthor or any of its tags has hit caps.MaxPerTag.
// The pass stops once maxPool items are collected (no cap when maxPool is
// zero or negative). Skipped candidates are never revisited and the input
// order is preserved.
func SampleDiverse(ranked []ScoredPost, caps ranking.Diversity, maxPool int) []ScoredPost {
	authorCounts := make(map[string]int)
	tagCounts := make(map[string]int)

	out := make([]ScoredPost, 0, len(ranked))
	for _, c := range ranked {
		if maxPool > 0 && len(out) >= maxPool {
			break
		}

		if authorCounts[c.Post.AuthorID] >= caps.MaxPerAuthor {
			continue
		}

		tagCapped := false
		for _, tag := range c.Post.Tags {
			if tagCounts[tag] >= caps.MaxPerTag {
				tagCapped = true
				break
			}
		}
		if tagCapped {
			continue
		}

		out = append(out, c)
		authorCounts[c.Post.AuthorID]++
		for _, tag := range c.Post.Tags {
			tagCounts[tag]++
		}
	}
	return out
}
