// Package audit keeps an append-only trail of identity checks and the
// account actions they guard.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names an audited action.
type EventType string

const (
	EventVerificationAccepted EventType = "biometric.verification_accepted"
	EventVerificationRejected EventType = "biometric.verification_rejected"
	EventNoValidCapture       EventType = "biometric.no_valid_capture"
	EventInvalidReference     EventType = "biometric.invalid_reference"
	EventNoReference          EventType = "biometric.no_reference"
	EventBookingConfirmed     EventType = "booking.confirmed"
	EventBookingCancelled     EventType = "booking.cancelled"
	EventUpdateSubmitted      EventType = "update.submitted"
)

// Event is one immutable audit record.
type Event struct {
	ID        string          `json:"id"`
	EventType EventType       `json:"event_type"`
	UserID    string          `json:"user_id"`
	Flow      string          `json:"flow,omitempty"`
	SubjectID string          `json:"subject_id,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// VerificationDetails is stored with verification events. Raw embeddings are
// never written to the trail.
type VerificationDetails struct {
	AvgDistance float64 `json:"avg_distance,omitempty"`
	Confidence  int     `json:"confidence,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
	ValidFrames int     `json:"valid_frames,omitempty"`
	Captures    int     `json:"captures"`
}

// Service writes audit events through database/sql. A Service without a DB
// drops events, which keeps DB-less development runs working.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

// NewService creates an audit service. db may be nil.
func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Enabled reports whether events are persisted.
func (s *Service) Enabled() bool {
	return s != nil && s.db != nil
}

// LogEvent records an audit event.
func (s *Service) LogEvent(ctx context.Context, event Event) error {
	if !s.Enabled() {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now().UTC()
	}

	query := `
		INSERT INTO audit_events (id, event_type, user_id, flow, subject_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.EventType),
		event.UserID,
		nullString(event.Flow),
		nullString(event.SubjectID),
		nullJSON(event.Details),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

// LogVerification records the outcome of a face check.
func (s *Service) LogVerification(ctx context.Context, userID, flow string, eventType EventType, details VerificationDetails) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("audit: marshal details: %w", err)
	}
	return s.LogEvent(ctx, Event{
		EventType: eventType,
		UserID:    userID,
		Flow:      flow,
		Details:   raw,
	})
}

// LogAction records an account action such as a confirmed booking.
func (s *Service) LogAction(ctx context.Context, userID string, eventType EventType, subjectID string) error {
	return s.LogEvent(ctx, Event{EventType: eventType, UserID: userID, SubjectID: subjectID})
}

// ListForUser returns the newest events for a user.
func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]Event, error) {
	if !s.Enabled() {
		return []Event{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, user_id, COALESCE(flow, ''), COALESCE(subject_id, ''), details, created_at
		FROM audit_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: list events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var (
			e       Event
			typ     string
			details []byte
		)
		if err := rows.Scan(&e.ID, &typ, &e.UserID, &e.Flow, &e.SubjectID, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.EventType = EventType(typ)
		if len(details) > 0 {
			e.Details = details
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: list events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
