package updates

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/idseva-booking/internal/accounts"
	"github.com/wolfman30/idseva-booking/internal/audit"
	"github.com/wolfman30/idseva-booking/internal/biometric"
	"github.com/wolfman30/idseva-booking/internal/notify"
	"github.com/wolfman30/idseva-booking/internal/session"
	"github.com/wolfman30/idseva-booking/internal/verification"
)

type recordingAuditor struct {
	events []audit.EventType
}

func (a *recordingAuditor) LogAction(_ context.Context, _ string, eventType audit.EventType, _ string) error {
	a.events = append(a.events, eventType)
	return nil
}

type fixture struct {
	svc     *Service
	repo    *InMemoryRepository
	email   *notify.StubEmailSender
	auditor *recordingAuditor
	user    *accounts.User
}

func face(v float64) []float64 {
	out := make([]float64, biometric.EmbeddingSize)
	for i := range out {
		out[i] = v
	}
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := accounts.NewInMemoryRepository()
	stored, err := json.Marshal(face(0.1))
	require.NoError(t, err)
	user := &accounts.User{
		Aadhaar:        "123412341234",
		Name:           "Asha Rao",
		Email:          "asha@example.com",
		Mobile:         "9876543210",
		Address:        "1-2, MG Road, Hyderabad, Telangana - 500001",
		FaceDescriptor: stored,
	}
	require.NoError(t, users.Create(context.Background(), user))

	repo := NewInMemoryRepository()
	email := notify.NewStubEmailSender(nil)
	auditor := &recordingAuditor{}
	svc := NewService(repo, accounts.NewService(users, nil, nil, nil),
		verification.NewGate(nil, nil, nil, nil), notify.NewService(email, nil), auditor, nil, nil)
	return &fixture{svc: svc, repo: repo, email: email, auditor: auditor, user: user}
}

func (f *fixture) submit(req SubmitRequest) (*Request, error) {
	sess := session.Session{UserID: f.user.ID, Aadhaar: f.user.Aadhaar, Name: f.user.Name}
	return f.svc.Submit(context.Background(), sess, req)
}

func TestStatusProgress(t *testing.T) {
	assert.Equal(t, 0, StatusPending.Progress())
	assert.Equal(t, 0, StatusSubmitted.Progress())
	assert.Equal(t, 2, StatusVROVerified.Progress())
	assert.Equal(t, 4, StatusApproved.Progress())
	assert.Equal(t, -1, StatusRejected.Progress())

	assert.Equal(t, "Submitted", StatusPending.Label())
	assert.Equal(t, "MRO Approval", StatusMROVerified.Label())
	assert.Equal(t, "Rejected", StatusRejected.Label())
	assert.Equal(t, "on hold", Status("on_hold").Label())
}

func TestAddressFormat(t *testing.T) {
	got, err := Address{HouseNo: "12-3", Street: " Park Lane", City: "Hyderabad", State: "Telangana", Pincode: "500003"}.Format()
	require.NoError(t, err)
	assert.Equal(t, "12-3, Park Lane, Hyderabad, Telangana - 500003", got)

	_, err = Address{HouseNo: "12-3", Street: "Park Lane", City: "Hyderabad", State: "Telangana"}.Format()
	assert.ErrorIs(t, err, ErrAddressIncomplete)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	captures := [][]float64{face(0.1)}

	cases := []struct {
		name string
		req  SubmitRequest
		want error
	}{
		{"unknown type", SubmitRequest{Type: "name", Value: "x", Captures: captures}, ErrInvalidType},
		{"empty value", SubmitRequest{Type: "mobile", Captures: captures}, ErrValueRequired},
		{"same mobile", SubmitRequest{Type: "mobile", Value: "9876543210", Captures: captures}, ErrSameValue},
		{"bad mobile", SubmitRequest{Type: "mobile", Value: "12345", Captures: captures}, ErrInvalidMobile},
		{"same email", SubmitRequest{Type: "email", Value: "ASHA@example.com", Captures: captures}, ErrSameValue},
		{"bad email", SubmitRequest{Type: "email", Value: "not-an-email", Captures: captures}, ErrInvalidEmail},
		{"no address", SubmitRequest{Type: "address", Captures: captures}, ErrAddressIncomplete},
		{"same address", SubmitRequest{Type: "address", Address: &Address{
			HouseNo: "1-2", Street: "MG Road", City: "Hyderabad", State: "Telangana", Pincode: "500001",
		}, Captures: captures}, ErrSameValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.submit(tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestSubmitFilesPendingRequest(t *testing.T) {
	f := newFixture(t)

	req, err := f.submit(SubmitRequest{Type: "mobile", Value: "9123456780", Captures: [][]float64{face(0.1), face(0.12)}})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, "9123456780", req.NewValue)
	assert.Equal(t, []audit.EventType{audit.EventUpdateSubmitted}, f.auditor.events)

	sent := f.email.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Subject, "Mobile Number")
	assert.Contains(t, sent[0].Body, req.ID)

	_, err = f.submit(SubmitRequest{Type: "mobile", Value: "9000000000", Captures: [][]float64{face(0.1)}})
	assert.ErrorIs(t, err, ErrPendingExists)

	_, err = f.submit(SubmitRequest{Type: "email", Value: "asha.rao@example.com", Captures: [][]float64{face(0.1)}})
	require.NoError(t, err)

	f.repo.SetStatus(req.ID, StatusApproved)
	_, err = f.submit(SubmitRequest{Type: "mobile", Value: "9000000000", Captures: [][]float64{face(0.1)}})
	require.NoError(t, err)
}

func TestSubmitRequiresMatchingFace(t *testing.T) {
	f := newFixture(t)

	_, err := f.submit(SubmitRequest{Type: "address", Address: &Address{
		HouseNo: "5", Street: "Lake View", City: "Hyderabad", State: "Telangana", Pincode: "500082",
	}, Captures: [][]float64{face(0.3)}})
	var rejected *verification.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, biometric.DefaultThresholds().ProfileUpdate, rejected.Decision.Threshold)

	list, err := f.svc.List(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.email.Sent())
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.repo.now = func() time.Time { return base }
	first, err := f.submit(SubmitRequest{Type: "mobile", Value: "9123456780", Captures: [][]float64{face(0.1)}})
	require.NoError(t, err)
	f.repo.now = func() time.Time { return base.Add(time.Hour) }
	second, err := f.submit(SubmitRequest{Type: "email", Value: "new@example.com", Captures: [][]float64{face(0.1)}})
	require.NoError(t, err)

	list, err := f.svc.List(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}
