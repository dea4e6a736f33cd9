package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores citizen accounts.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByAadhaar(ctx context.Context, aadhaar string) (*User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	SetLanguage(ctx context.Context, id string, lang Language) error
}

// InMemoryRepository keeps users in a map for tests and DB-less runs.
type InMemoryRepository struct {
	mu        sync.RWMutex
	users     map[string]*User
	byAadhaar map[string]string
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:     make(map[string]*User),
		byAadhaar: make(map[string]string),
	}
}

func (r *InMemoryRepository) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byAadhaar[user.Aadhaar]; taken {
		return ErrAadhaarTaken
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	stored := *user
	r.users[user.ID] = &stored
	r.byAadhaar[user.Aadhaar] = user.ID
	return nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *InMemoryRepository) GetByAadhaar(ctx context.Context, aadhaar string) (*User, error) {
	r.mu.RLock()
	id, ok := r.byAadhaar[aadhaar]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *InMemoryRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	at = at.UTC()
	u.LastLogin = &at
	return nil
}

func (r *InMemoryRepository) SetLanguage(_ context.Context, id string, lang Language) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PreferredLanguage = lang
	return nil
}

// Put stores user as is, replacing any existing record with the same ID.
func (r *InMemoryRepository) Put(user *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *user
	r.users[user.ID] = &stored
	r.byAadhaar[user.Aadhaar] = user.ID
}
