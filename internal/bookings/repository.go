package bookings

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/idseva-booking/internal/slots"
)

// Repository persists bookings. Create and Cancel keep the slot's booked
// count in step with the booking row.
type Repository interface {
	// Create inserts b and takes a seat in its slot atomically, failing with
	// ErrDuplicateBooking when the user already holds an active booking there.
	Create(ctx context.Context, b *Booking) error
	// HasActive reports whether userID holds a Booked or Confirmed booking on slotID.
	HasActive(ctx context.Context, userID, slotID string) (bool, error)
	Get(ctx context.Context, id string) (*Booking, error)
	// ListForUser returns the user's bookings newest first, with slot and center.
	ListForUser(ctx context.Context, userID string) ([]Booking, error)
	// Cancel marks an active booking cancelled and frees its seat.
	Cancel(ctx context.Context, id string) error
}

// InMemoryRepository keeps bookings in a map and reserves seats through a
// slots.Repository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	slots    slots.Repository
	bookings map[string]*Booking
	now      func() time.Time
}

// NewInMemoryRepository creates an empty repository over slotRepo.
func NewInMemoryRepository(slotRepo slots.Repository) *InMemoryRepository {
	return &InMemoryRepository{
		slots:    slotRepo,
		bookings: make(map[string]*Booking),
		now:      time.Now,
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bookings {
		if existing.Reference == b.Reference {
			return ErrReferenceTaken
		}
	}
	if b.Status.Active() && r.hasActive(b.UserID, b.SlotID) {
		return ErrDuplicateBooking
	}
	if err := r.slots.IncrementBooked(ctx, b.SlotID); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now().UTC()
	}
	stored := *b
	stored.Slot = nil
	r.bookings[b.ID] = &stored
	return nil
}

func (r *InMemoryRepository) hasActive(userID, slotID string) bool {
	for _, b := range r.bookings {
		if b.UserID == userID && b.SlotID == slotID && b.Status.Active() {
			return true
		}
	}
	return false
}

func (r *InMemoryRepository) HasActive(_ context.Context, userID, slotID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasActive(userID, slotID), nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	b, ok := r.bookings[id]
	var out Booking
	if ok {
		out = *b
	}
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if slot, err := r.slots.GetSlot(ctx, out.SlotID); err == nil {
		out.Slot = slot
	}
	return &out, nil
}

func (r *InMemoryRepository) ListForUser(ctx context.Context, userID string) ([]Booking, error) {
	r.mu.RLock()
	out := make([]Booking, 0)
	for _, b := range r.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	for i := range out {
		if slot, err := r.slots.GetSlot(ctx, out[i].SlotID); err == nil {
			out[i].Slot = slot
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Cancel(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if !b.Status.Cancellable() {
		return ErrNotCancellable
	}
	if err := r.slots.DecrementBooked(ctx, b.SlotID); err != nil {
		return err
	}
	b.Status = StatusCancelled
	return nil
}

// SetStatus overrides a booking's status. Center staff move bookings along
// the track outside this service; tests use it to simulate that.
func (r *InMemoryRepository) SetStatus(id string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bookings[id]; ok {
		b.Status = status
	}
}
