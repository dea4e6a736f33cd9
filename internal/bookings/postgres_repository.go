package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wolfman30/idseva-booking/internal/database"
	"github.com/wolfman30/idseva-booking/internal/recommend"
	"github.com/wolfman30/idseva-booking/internal/slots"
)

// PostgresRepository stores bookings in Postgres.
type PostgresRepository struct {
	pool database.PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool database.PgxPool) *PostgresRepository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const bookingSelect = `
	SELECT b.id, b.reference, b.user_id, b.slot_id, b.status, b.booking_type, b.update_type, b.created_at,
		to_char(s.slot_date, 'YYYY-MM-DD'), to_char(s.slot_time, 'HH24:MI'), s.capacity, s.booked_count,
		c.id, c.name, c.address, c.latitude, c.longitude
	FROM bookings b
	JOIN slots s ON s.id = b.slot_id
	JOIN centers c ON c.id = s.center_id
`

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b      Booking
		s      recommend.Slot
		c      recommend.Center
		status string
		update string
	)
	if err := row.Scan(&b.ID, &b.Reference, &b.UserID, &b.SlotID, &status, &b.BookingType, &update, &b.CreatedAt,
		&s.Date, &s.Time, &s.Capacity, &s.BookedCount,
		&c.ID, &c.Name, &c.Address, &c.Latitude, &c.Longitude); err != nil {
		return nil, err
	}
	b.Status = Status(status)
	b.UpdateType = UpdateType(update)
	b.CreatedAt = b.CreatedAt.UTC()
	s.ID = b.SlotID
	s.CenterID = c.ID
	s.Center = &c
	b.Slot = &s
	return &b, nil
}

// activeBookingConstraint is the partial unique index allowing one Booked or
// Confirmed booking per user and slot.
const activeBookingConstraint = "uq_bookings_user_slot_active"

// Create inserts the booking and increments the slot's count in one
// transaction. A full slot rolls the insert back.
func (r *PostgresRepository) Create(ctx context.Context, b *Booking) error {
	id := uuid.New()
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := slots.IncrementBookedWith(ctx, tx, b.SlotID); err != nil {
			return err
		}
		return tx.QueryRow(ctx, `
			INSERT INTO bookings (id, reference, user_id, slot_id, status, booking_type, update_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at
		`, id, b.Reference, b.UserID, b.SlotID, string(b.Status), b.BookingType, string(b.UpdateType)).Scan(&b.CreatedAt)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			if database.ViolatedConstraint(err) == activeBookingConstraint {
				return ErrDuplicateBooking
			}
			return ErrReferenceTaken
		}
		if errors.Is(err, slots.ErrSlotFull) {
			return err
		}
		return fmt.Errorf("bookings: create: %w", err)
	}
	b.ID = id.String()
	b.CreatedAt = b.CreatedAt.UTC()
	return nil
}

func (r *PostgresRepository) HasActive(ctx context.Context, userID, slotID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND slot_id = $2 AND status IN ('Booked', 'Confirmed')
		)
	`, userID, slotID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("bookings: check active: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	b, err := scanBooking(r.pool.QueryRow(ctx, bookingSelect+`WHERE b.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: get: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, bookingSelect+`
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	defer rows.Close()

	out := make([]Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	return out, nil
}

// Cancel flips an active booking to Cancelled and frees its seat in one
// transaction.
func (r *PostgresRepository) Cancel(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var slotID string
		err := tx.QueryRow(ctx, `
			UPDATE bookings SET status = 'Cancelled'
			WHERE id = $1 AND status IN ('Booked', 'Confirmed')
			RETURNING slot_id
		`, id).Scan(&slotID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotCancellable
		}
		if err != nil {
			return err
		}
		return slots.DecrementBookedWith(ctx, tx, slotID)
	})
	if err != nil {
		if errors.Is(err, ErrNotCancellable) {
			return err
		}
		return fmt.Errorf("bookings: cancel: %w", err)
	}
	return nil
}
