package audit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/idseva-booking/internal/session"
)

func TestListActivityHandler(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM audit_events").
		WithArgs("user-1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "user_id", "flow", "subject_id", "details", "created_at"}).
			AddRow("e1", "booking.cancelled", "user-1", "", "b1", nil, at))

	r := chi.NewRouter()
	NewHandler(NewService(db), nil).Routes(r)

	req := httptest.NewRequest(http.MethodGet, "/me/activity?limit=5", nil)
	req = req.WithContext(session.WithSession(req.Context(), session.Session{UserID: "user-1"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Events []Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Events, 1)
	assert.Equal(t, EventBookingCancelled, body.Events[0].EventType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListActivityRequiresSession(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(NewService(nil), nil).Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me/activity", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
