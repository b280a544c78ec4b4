package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tidefall/feedrank/internal/user"
)

// UserStore implements user.Repository on PostgreSQL. Follow edges live in
// a separate follows table and are aggregated into the viewer projection at
// read time.
type UserStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewUserStore creates a PostgreSQL user store.
func NewUserStore(db *sql.DB, logger *slog.Logger) *UserStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		db:     db,
		logger: logger,
	}
}

// Create inserts a user and their outgoing follow edges in one transaction.
func (s *UserStore) Create(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.logger.Warn("failed to rollback transaction", "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, handle, verified, rank, reputation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Handle, u.Verified, int(u.Rank), u.Reputation, u.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	for _, followeeID := range u.FollowingIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO follows (follower_id, followee_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			u.ID, followeeID,
		); err != nil {
			return fmt.Errorf("insert follow edge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a stored user record with their follow edges.
func (s *UserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	var (
		u         user.User
		rank      int
		following pq.StringArray
		followers pq.StringArray
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.handle, u.verified, u.rank, u.reputation, u.created_at,
			COALESCE((SELECT array_agg(followee_id) FROM follows WHERE follower_id = u.id), '{}'),
			COALESCE((SELECT array_agg(follower_id) FROM follows WHERE followee_id = u.id), '{}')
		FROM users u
		WHERE u.id = $1`, id,
	).Scan(&u.ID, &u.Handle, &u.Verified, &rank, &u.Reputation, &u.CreatedAt, &following, &followers)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrViewerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}

	u.Rank = user.Rank(rank)
	u.FollowingIDs = following
	u.FollowerIDs = followers
	return &u, nil
}

// GetViewer resolves a user ID to their viewer projection.
func (s *UserStore) GetViewer(ctx context.Context, id string) (*user.Viewer, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Viewer(), nil
}
