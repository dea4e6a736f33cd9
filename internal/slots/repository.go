// Package slots serves enrolment centers, their appointment slots and the
// booking window.
package slots

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfman30/idseva-booking/internal/recommend"
)

// Repository reads centers and slots and reserves seats.
type Repository interface {
	ListCenters(ctx context.Context) ([]recommend.Center, error)
	ListSlots(ctx context.Context, centerID, date string) ([]recommend.Slot, error)
	GetSlot(ctx context.Context, id string) (*recommend.Slot, error)
	// IncrementBooked takes one seat, failing with ErrSlotFull when none is left.
	IncrementBooked(ctx context.Context, id string) error
	// DecrementBooked frees one seat; the count never drops below zero.
	DecrementBooked(ctx context.Context, id string) error
	// EnsureDaySlots creates the given times for every center on date,
	// leaving existing slots untouched. It returns how many were created.
	EnsureDaySlots(ctx context.Context, date string, times []string, capacity int) (int, error)
}

// InMemoryRepository keeps centers and slots in maps.
type InMemoryRepository struct {
	mu      sync.RWMutex
	centers []recommend.Center
	slots   map[string]*recommend.Slot
}

// NewInMemoryRepository creates a repository holding the given centers.
func NewInMemoryRepository(centers ...recommend.Center) *InMemoryRepository {
	return &InMemoryRepository{
		centers: append([]recommend.Center(nil), centers...),
		slots:   make(map[string]*recommend.Slot),
	}
}

// AddSlot stores slot, assigning an ID when empty, and returns the ID.
func (r *InMemoryRepository) AddSlot(slot recommend.Slot) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	slot.Center = nil
	r.slots[slot.ID] = &slot
	return slot.ID
}

func (r *InMemoryRepository) ListCenters(_ context.Context) ([]recommend.Center, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]recommend.Center(nil), r.centers...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *InMemoryRepository) center(id string) *recommend.Center {
	for i := range r.centers {
		if r.centers[i].ID == id {
			c := r.centers[i]
			return &c
		}
	}
	return nil
}

func (r *InMemoryRepository) ListSlots(_ context.Context, centerID, date string) ([]recommend.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	center := r.center(centerID)
	if center == nil {
		return nil, ErrCenterNotFound
	}
	out := make([]recommend.Slot, 0)
	for _, s := range r.slots {
		if s.CenterID == centerID && s.Date == date {
			slot := *s
			slot.Center = center
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time == out[j].Time {
			return out[i].ID < out[j].ID
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (r *InMemoryRepository) GetSlot(_ context.Context, id string) (*recommend.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	slot := *s
	slot.Center = r.center(slot.CenterID)
	return &slot, nil
}

func (r *InMemoryRepository) IncrementBooked(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return ErrSlotNotFound
	}
	if s.IsFull() {
		return ErrSlotFull
	}
	s.BookedCount++
	return nil
}

func (r *InMemoryRepository) DecrementBooked(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return ErrSlotNotFound
	}
	if s.BookedCount > 0 {
		s.BookedCount--
	}
	return nil
}

func (r *InMemoryRepository) EnsureDaySlots(_ context.Context, date string, times []string, capacity int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := make(map[[3]string]bool, len(r.slots))
	for _, s := range r.slots {
		existing[[3]string{s.CenterID, s.Date, s.Time}] = true
	}
	created := 0
	for _, c := range r.centers {
		for _, t := range times {
			if existing[[3]string{c.ID, date, t}] {
				continue
			}
			id := uuid.NewString()
			r.slots[id] = &recommend.Slot{ID: id, CenterID: c.ID, Date: date, Time: t, Capacity: capacity}
			created++
		}
	}
	return created, nil
}
