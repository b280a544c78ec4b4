package user

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors for user operations.
var (
	ErrViewerNotFound = errors.New("viewer not found")
	ErrUserExists     = errors.New("user already exists")
)

// Repository defines the interface for user data operations needed by feed
// generation.
type Repository interface {
	// GetViewer resolves a user ID to their viewer projection.
	// Returns ErrViewerNotFound if the ID does not resolve.
	GetViewer(ctx context.Context, id string) (*Viewer, error)

	// GetByID retrieves a stored user record.
	GetByID(ctx context.Context, id string) (*User, error)

	// Create inserts a new user, generating an ID when absent.
	Create(ctx context.Context, u *User) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewInMemoryRepository creates a new in-memory user repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users: make(map[string]*User),
	}
}

// Create inserts a new user, generating a UUID when no ID is provided.
func (r *InMemoryRepository) Create(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if _, exists := r.users[u.ID]; exists {
		return ErrUserExists
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	userCopy := *u
	r.users[u.ID] = &userCopy
	return nil
}

// GetByID retrieves a stored user record.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrViewerNotFound
	}

	userCopy := *u
	return &userCopy, nil
}

// GetViewer resolves a user ID to their viewer projection.
func (r *InMemoryRepository) GetViewer(ctx context.Context, id string) (*Viewer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrViewerNotFound
	}

	return u.Viewer(), nil
}
