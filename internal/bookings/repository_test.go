package bookings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/idseva-booking/internal/recommend"
	"github.com/wolfman30/idseva-booking/internal/slots"
)

func TestInMemoryCreateRefusesSecondActiveBooking(t *testing.T) {
	ctx := context.Background()
	slotRepo := slots.NewInMemoryRepository(center)
	slotID := slotRepo.AddSlot(recommend.Slot{CenterID: "c1", Date: "2026-03-02", Time: "10:00", Capacity: 3})
	repo := NewInMemoryRepository(slotRepo)

	first := &Booking{Reference: "AAAAAAA", UserID: "user-1", SlotID: slotID, Status: StatusBooked}
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, &Booking{Reference: "BBBBBBB", UserID: "user-1", SlotID: slotID, Status: StatusBooked})
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	slot, err := slotRepo.GetSlot(ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, 1, slot.BookedCount, "rejected insert must not take a seat")

	require.NoError(t, repo.Create(ctx, &Booking{Reference: "CCCCCCC", UserID: "user-2", SlotID: slotID, Status: StatusBooked}))

	require.NoError(t, repo.Cancel(ctx, first.ID))
	require.NoError(t, repo.Create(ctx, &Booking{Reference: "DDDDDDD", UserID: "user-1", SlotID: slotID, Status: StatusBooked}))
}
