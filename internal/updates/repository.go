package updates

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores update requests.
type Repository interface {
	// Create inserts r, failing with ErrPendingExists when the user already
	// has a pending request of the same type.
	Create(ctx context.Context, r *Request) error
	HasPending(ctx context.Context, userID string, t Type) (bool, error)
	// ListForUser returns the user's requests newest first.
	ListForUser(ctx context.Context, userID string) ([]Request, error)
}

// InMemoryRepository keeps requests in a map.
type InMemoryRepository struct {
	mu       sync.RWMutex
	requests map[string]*Request
	now      func() time.Time
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{requests: make(map[string]*Request), now: time.Now}
}

func (m *InMemoryRepository) hasPending(userID string, t Type) bool {
	for _, r := range m.requests {
		if r.UserID == userID && r.Type == t && r.Status == StatusPending {
			return true
		}
	}
	return false
}

func (m *InMemoryRepository) Create(_ context.Context, r *Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.Status == StatusPending && m.hasPending(r.UserID, r.Type) {
		return ErrPendingExists
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now().UTC()
	}
	stored := *r
	m.requests[r.ID] = &stored
	return nil
}

func (m *InMemoryRepository) HasPending(_ context.Context, userID string, t Type) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasPending(userID, t), nil
}

func (m *InMemoryRepository) ListForUser(_ context.Context, userID string) ([]Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Request, 0)
	for _, r := range m.requests {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// SetStatus moves a request along the approval chain. Approvals happen
// outside this service; tests use it to simulate them.
func (m *InMemoryRepository) SetStatus(id string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		r.Status = status
	}
}
