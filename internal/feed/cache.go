package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tidefall/feedrank/internal/post"
)

// DefaultTrendingTTL is how long a trending page stays cached. Trending is
// a trailing-24h window, so staleness of a minute is acceptable.
const DefaultTrendingTTL = time.Minute

// TrendingCache is a Redis read-through cache for trending pages, keyed by
// limit. Cache failures degrade to the store; they are logged and never
// surfaced to the caller.
type TrendingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewTrendingCache creates a trending cache. A zero ttl uses
// DefaultTrendingTTL; a nil logger falls back to slog.Default.
func NewTrendingCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *TrendingCache {
	if ttl <= 0 {
		ttl = DefaultTrendingTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TrendingCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Key returns the cache key for a trending page of the given size.
func Key(limit int) string {
	return fmt.Sprintf("feed:trending:%d", limit)
}

// Get returns the cached trending page for the given limit, and whether it
// was present and decodable.
func (c *TrendingCache) Get(ctx context.Context, limit int) ([]*post.Post, bool) {
	data, err := c.client.Get(ctx, Key(limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("trending cache read failed", "limit", limit, "error", err)
		}
		return nil, false
	}

	var posts []*post.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		c.logger.Warn("trending cache entry undecodable, ignoring", "limit", limit, "error", err)
		return nil, false
	}
	return posts, true
}

// Set stores a trending page under its limit key for the configured TTL.
func (c *TrendingCache) Set(ctx context.Context, limit int, posts []*post.Post) {
	data, err := json.Marshal(posts)
	if err != nil {
		c.logger.Warn("trending cache encode failed", "limit", limit, "error", err)
		return
	}
	if err := c.client.Set(ctx, Key(limit), data, c.ttl).Err(); err != nil {
		c.logger.Warn("trending cache write failed", "limit", limit, "error", err)
	}
}
