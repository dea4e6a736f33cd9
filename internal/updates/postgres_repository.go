package updates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wolfman30/idseva-booking/internal/database"
)

// PostgresRepository stores update requests in Postgres. A partial unique
// index on (user_id, type) WHERE status = 'pending' backs ErrPendingExists.
type PostgresRepository struct {
	pool database.PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool database.PgxPool) *PostgresRepository {
	if pool == nil {
		panic("updates: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, req *Request) error {
	id := uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO update_requests (id, user_id, type, new_value, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, id, req.UserID, string(req.Type), req.NewValue, string(req.Status)).Scan(&req.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrPendingExists
		}
		return fmt.Errorf("updates: insert: %w", err)
	}
	req.ID = id.String()
	req.CreatedAt = req.CreatedAt.UTC()
	return nil
}

func (r *PostgresRepository) HasPending(ctx context.Context, userID string, t Type) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM update_requests
			WHERE user_id = $1 AND type = $2 AND status = 'pending'
		)
	`, userID, string(t)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("updates: check pending: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, new_value, status, created_at
		FROM update_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("updates: list: %w", err)
	}
	defer rows.Close()

	out := make([]Request, 0)
	for rows.Next() {
		var (
			req         Request
			typ, status string
		)
		if err := rows.Scan(&req.ID, &req.UserID, &typ, &req.NewValue, &status, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("updates: scan: %w", err)
		}
		req.Type = Type(typ)
		req.Status = Status(status)
		req.CreatedAt = req.CreatedAt.UTC()
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("updates: list: %w", err)
	}
	return out, nil
}
