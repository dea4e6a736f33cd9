package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(db)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO audit_events").
		WithArgs("evt-1", "booking.confirmed", "user-1",
			sql.NullString{}, sql.NullString{String: "booking-1", Valid: true}, nil, at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = svc.LogEvent(context.Background(), Event{
		ID:        "evt-1",
		EventType: EventBookingConfirmed,
		UserID:    "user-1",
		SubjectID: "booking-1",
		CreatedAt: at,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogVerification(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(db)
	mock.ExpectExec("INSERT INTO audit_events").
		WithArgs(sqlmock.AnyArg(), "biometric.verification_rejected", "user-1",
			sql.NullString{String: "booking", Valid: true}, sql.NullString{},
			`{"avg_distance":0.6,"confidence":40,"threshold":0.45,"valid_frames":3,"captures":3}`,
			sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = svc.LogVerification(context.Background(), "user-1", "booking", EventVerificationRejected, VerificationDetails{
		AvgDistance: 0.6, Confidence: 40, Threshold: 0.45, ValidFrames: 3, Captures: 3,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogEventError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO audit_events").WillReturnError(errors.New("disk full"))

	err = NewService(db).LogAction(context.Background(), "user-1", EventUpdateSubmitted, "req-1")
	assert.ErrorContains(t, err, "disk full")
}

func TestListForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM audit_events").
		WithArgs("user-1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "user_id", "flow", "subject_id", "details", "created_at"}).
			AddRow("e2", "booking.confirmed", "user-1", "", "b1", nil, at).
			AddRow("e1", "biometric.verification_accepted", "user-1", "booking", "", []byte(`{"captures":3}`), at.Add(-time.Minute)))

	events, err := NewService(db).ListForUser(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventBookingConfirmed, events[0].EventType)
	assert.Equal(t, "b1", events[0].SubjectID)
	assert.Nil(t, events[0].Details)
	assert.JSONEq(t, `{"captures":3}`, string(events[1].Details))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDisabledServiceIsNoop(t *testing.T) {
	svc := NewService(nil)
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.LogAction(context.Background(), "u", EventBookingCancelled, "b"))

	events, err := svc.ListForUser(context.Background(), "u", 5)
	require.NoError(t, err)
	assert.Empty(t, events)

	var nilSvc *Service
	assert.NoError(t, nilSvc.LogEvent(context.Background(), Event{}))
}
