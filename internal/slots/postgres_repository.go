package slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wolfman30/idseva-booking/internal/database"
	"github.com/wolfman30/idseva-booking/internal/recommend"
)

// PostgresRepository reads centers and slots from Postgres.
type PostgresRepository struct {
	pool database.PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool database.PgxPool) *PostgresRepository {
	if pool == nil {
		panic("slots: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) ListCenters(ctx context.Context) ([]recommend.Center, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, address, latitude, longitude
		FROM centers
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("slots: list centers: %w", err)
	}
	defer rows.Close()

	centers := make([]recommend.Center, 0)
	for rows.Next() {
		var c recommend.Center
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Latitude, &c.Longitude); err != nil {
			return nil, fmt.Errorf("slots: scan center: %w", err)
		}
		centers = append(centers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("slots: list centers: %w", err)
	}
	return centers, nil
}

const slotSelect = `
	SELECT s.id, s.center_id, to_char(s.slot_date, 'YYYY-MM-DD'), to_char(s.slot_time, 'HH24:MI'),
		s.capacity, s.booked_count,
		c.id, c.name, c.address, c.latitude, c.longitude
	FROM slots s
	JOIN centers c ON c.id = s.center_id
`

func scanSlot(row pgx.Row) (*recommend.Slot, error) {
	var (
		s recommend.Slot
		c recommend.Center
	)
	if err := row.Scan(&s.ID, &s.CenterID, &s.Date, &s.Time, &s.Capacity, &s.BookedCount,
		&c.ID, &c.Name, &c.Address, &c.Latitude, &c.Longitude); err != nil {
		return nil, err
	}
	s.Center = &c
	return &s, nil
}

func (r *PostgresRepository) ListSlots(ctx context.Context, centerID, date string) ([]recommend.Slot, error) {
	if _, err := uuid.Parse(centerID); err != nil {
		return nil, ErrCenterNotFound
	}
	rows, err := r.pool.Query(ctx, slotSelect+`
		WHERE s.center_id = $1 AND s.slot_date = $2::date
		ORDER BY s.slot_time
	`, centerID, date)
	if err != nil {
		return nil, fmt.Errorf("slots: list slots: %w", err)
	}
	defer rows.Close()

	out := make([]recommend.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("slots: scan slot: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("slots: list slots: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetSlot(ctx context.Context, id string) (*recommend.Slot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSlotNotFound
	}
	s, err := scanSlot(r.pool.QueryRow(ctx, slotSelect+`WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("slots: get slot: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) IncrementBooked(ctx context.Context, id string) error {
	return IncrementBookedWith(ctx, r.pool, id)
}

func (r *PostgresRepository) DecrementBooked(ctx context.Context, id string) error {
	return DecrementBookedWith(ctx, r.pool, id)
}

// IncrementBookedWith takes one seat using q, which may be a transaction.
func IncrementBookedWith(ctx context.Context, q database.Querier, id string) error {
	tag, err := q.Exec(ctx, `
		UPDATE slots SET booked_count = booked_count + 1
		WHERE id = $1 AND booked_count < capacity
	`, id)
	if err != nil {
		return fmt.Errorf("slots: increment booked: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotFull
	}
	return nil
}

// DecrementBookedWith frees one seat using q, which may be a transaction.
func DecrementBookedWith(ctx context.Context, q database.Querier, id string) error {
	_, err := q.Exec(ctx, `
		UPDATE slots SET booked_count = GREATEST(booked_count - 1, 0)
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("slots: decrement booked: %w", err)
	}
	return nil
}

func (r *PostgresRepository) EnsureDaySlots(ctx context.Context, date string, times []string, capacity int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO slots (id, center_id, slot_date, slot_time, capacity)
		SELECT gen_random_uuid(), c.id, $1::date, t::time, $3
		FROM centers c CROSS JOIN unnest($2::text[]) AS t
		ON CONFLICT (center_id, slot_date, slot_time) DO NOTHING
	`, date, times, capacity)
	if err != nil {
		return 0, fmt.Errorf("slots: ensure day slots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
