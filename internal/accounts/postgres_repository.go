package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wolfman30/idseva-booking/internal/database"
)

// PostgresRepository stores users in Postgres.
type PostgresRepository struct {
	pool database.PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool database.PgxPool) *PostgresRepository {
	if pool == nil {
		panic("accounts: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const userColumns = `id, aadhaar_number, name, email, mobile, date_of_birth,
	COALESCE(address, ''), preferred_language, COALESCE(face_image_url, ''),
	face_descriptor, password_hash, is_verified, created_at, last_login`

// Create inserts the user and fills in ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, user *User) error {
	id := uuid.New()
	query := `
		INSERT INTO users (id, aadhaar_number, name, email, mobile, date_of_birth,
			preferred_language, face_image_url, face_descriptor, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)
		RETURNING created_at
	`
	var descriptor any
	if user.HasFaceDescriptor() {
		descriptor = string(user.FaceDescriptor)
	}
	var createdAt time.Time
	err := r.pool.QueryRow(ctx, query,
		id,
		user.Aadhaar,
		user.Name,
		user.Email,
		user.Mobile,
		user.DateOfBirth,
		string(user.PreferredLanguage),
		user.FaceImageURL,
		descriptor,
		user.PasswordHash,
	).Scan(&createdAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrAadhaarTaken
		}
		return fmt.Errorf("accounts: insert user: %w", err)
	}
	user.ID = id.String()
	user.CreatedAt = createdAt
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByAadhaar(ctx context.Context, aadhaar string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE aadhaar_number = $1`, aadhaar)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*User, error) {
	var (
		u          User
		lang       string
		descriptor []byte
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Aadhaar,
		&u.Name,
		&u.Email,
		&u.Mobile,
		&u.DateOfBirth,
		&u.Address,
		&lang,
		&u.FaceImageURL,
		&descriptor,
		&u.PasswordHash,
		&u.IsVerified,
		&u.CreatedAt,
		&u.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("accounts: select user: %w", err)
	}
	u.PreferredLanguage = Language(lang)
	u.FaceDescriptor = descriptor
	return &u, nil
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, "touch last login", `UPDATE users SET last_login = $2 WHERE id = $1`, id, at.UTC())
}

func (r *PostgresRepository) SetLanguage(ctx context.Context, id string, lang Language) error {
	return r.exec(ctx, "set language", `UPDATE users SET preferred_language = $2 WHERE id = $1`, id, string(lang))
}

func (r *PostgresRepository) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("accounts: %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
