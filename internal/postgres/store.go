// Package postgres provides PostgreSQL-backed implementations of the post
// and user stores.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tidefall/feedrank/internal/post"
	"github.com/tidefall/feedrank/internal/user"
)

// postColumns is the shared select list for post queries. The author's
// verified flag and rank are joined so candidates arrive with their summary
// already resolved.
const postColumns = `
	p.id, p.author_id, p.content, p.tags, p.media,
	p.likes_count, p.comments_count, p.views_count,
	p.location, p.link_preview, p.poll, p.content_warning,
	p.popularity_score, p.visibility, p.created_at, p.updated_at,
	u.verified, u.rank`

// PostStore implements post.Repository on PostgreSQL.
type PostStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostStore creates a PostgreSQL post store.
func NewPostStore(db *sql.DB, logger *slog.Logger) *PostStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostStore{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new post, generating a UUID when no ID is provided.
func (s *PostStore) Create(ctx context.Context, p *post.Post) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	media, err := json.Marshal(p.Media)
	if err != nil {
		return fmt.Errorf("encode media: %w", err)
	}
	linkPreview, err := marshalNullable(p.LinkPreview)
	if err != nil {
		return fmt.Errorf("encode link preview: %w", err)
	}
	poll, err := marshalNullable(p.Poll)
	if err != nil {
		return fmt.Errorf("encode poll: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO posts (
			id, author_id, content, tags, media,
			likes_count, comments_count, views_count,
			location, link_preview, poll, content_warning,
			popularity_score, visibility, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())`,
		p.ID, p.AuthorID, p.Content, pq.Array(p.Tags), media,
		p.LikesCount, p.CommentsCount, p.ViewsCount,
		p.Location, linkPreview, poll, p.ContentWarning,
		p.PopularityScore, string(p.Visibility), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a post by ID with its author summary joined.
func (s *PostStore) GetByID(ctx context.Context, id string) (*post.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1`, id)

	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, post.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select post: %w", err)
	}
	return p, nil
}

// FindCandidates returns a bounded, tier-ordered candidate pool. The tier
// lives only in the ORDER BY; it never leaves the query.
func (s *PostStore) FindCandidates(ctx context.Context, q post.CandidateQuery) ([]*post.Post, error) {
	followed := setToSlice(q.FollowedAuthorIDs)
	excluded := setToSlice(q.ExcludeIDs)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE NOT (p.id = ANY($3))
		  AND (
			(p.author_id = ANY($1) AND p.visibility IN ('public', 'followers'))
			OR (p.author_id = $4 AND p.visibility <> 'private')
			OR (NOT (p.author_id = ANY($1)) AND p.visibility = 'public')
		  )
		ORDER BY
			CASE
				WHEN p.author_id = ANY($1) THEN 3
				WHEN p.likes_count + 2 * p.comments_count > 50 THEN 2
				WHEN p.likes_count > 100 THEN 1
				ELSE 0
			END DESC,
			p.created_at DESC,
			p.id ASC
		LIMIT $2`,
		pq.Array(followed), q.PoolSize, pq.Array(excluded), q.ViewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer closeRows(rows, s.logger)

	return s.collectPosts(rows)
}

// Trending returns public posts from the trailing 24 hours ordered by
// engagement.
func (s *PostStore) Trending(ctx context.Context, limit int) ([]*post.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.visibility = 'public'
		  AND p.created_at > now() - interval '24 hours'
		ORDER BY p.likes_count + 2 * p.comments_count DESC, p.created_at DESC, p.id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trending posts: %w", err)
	}
	defer closeRows(rows, s.logger)

	return s.collectPosts(rows)
}

// Discovery returns public posts by authors the viewer does not follow,
// ordered by engagement.
func (s *PostStore) Discovery(ctx context.Context, viewerID string, followedIDs map[string]struct{}, limit int) ([]*post.Post, error) {
	followed := setToSlice(followedIDs)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.visibility = 'public'
		  AND p.author_id <> $1
		  AND NOT (p.author_id = ANY($2))
		ORDER BY p.likes_count + 2 * p.comments_count DESC, p.created_at DESC, p.id ASC
		LIMIT $3`, viewerID, pq.Array(followed), limit)
	if err != nil {
		return nil, fmt.Errorf("query discovery posts: %w", err)
	}
	defer closeRows(rows, s.logger)

	return s.collectPosts(rows)
}

// collectPosts scans all rows, dropping malformed records rather than
// failing the whole pool.
func (s *PostStore) collectPosts(rows *sql.Rows) ([]*post.Post, error) {
	var posts []*post.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			s.logger.Warn("dropping malformed candidate row", "error", err)
			continue
		}
		if p.Malformed() {
			continue
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*post.Post, error) {
	var (
		p           post.Post
		tags        pq.StringArray
		media       []byte
		linkPreview []byte
		poll        []byte
		visibility  string
		verified    bool
		rank        int
	)

	if err := row.Scan(
		&p.ID, &p.AuthorID, &p.Content, &tags, &media,
		&p.LikesCount, &p.CommentsCount, &p.ViewsCount,
		&p.Location, &linkPreview, &poll, &p.ContentWarning,
		&p.PopularityScore, &visibility, &p.CreatedAt, &p.UpdatedAt,
		&verified, &rank,
	); err != nil {
		return nil, err
	}

	p.Tags = tags
	p.Visibility = post.Visibility(visibility)
	p.Author = &post.AuthorSummary{
		ID:       p.AuthorID,
		Verified: verified,
		Rank:     user.Rank(rank),
	}

	if len(media) > 0 {
		if err := json.Unmarshal(media, &p.Media); err != nil {
			return nil, fmt.Errorf("decode media: %w", err)
		}
	}
	if len(linkPreview) > 0 {
		if err := json.Unmarshal(linkPreview, &p.LinkPreview); err != nil {
			return nil, fmt.Errorf("decode link preview: %w", err)
		}
	}
	if len(poll) > 0 {
		if err := json.Unmarshal(poll, &p.Poll); err != nil {
			return nil, fmt.Errorf("decode poll: %w", err)
		}
	}

	return &p, nil
}

func marshalNullable(v any) (any, error) {
	switch val := v.(type) {
	case *post.LinkPreview:
		if val == nil {
			return nil, nil
		}
	case *post.Poll:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func closeRows(rows *sql.Rows, logger *slog.Logger) {
	if err := rows.Close(); err != nil {
		logger.Warn("failed to close rows", "error", err)
	}
}
