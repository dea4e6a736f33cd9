package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/idseva-booking/internal/milestone"
	"github.com/wolfman30/idseva-booking/internal/session"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeUploader struct {
	url   string
	err   error
	calls int
}

func (f *fakeUploader) SaveFace(_ context.Context, aadhaar, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url + aadhaar, nil
}

func newTestService(t *testing.T, faces FaceUploader) (*Service, *InMemoryRepository) {
	t.Helper()
	sessions, err := session.NewManager("test-secret", time.Hour, session.NewMemoryRevoker())
	require.NoError(t, err)
	repo := NewInMemoryRepository()
	svc := NewService(repo, faces, sessions, nil)
	svc.now = func() time.Time { return testNow }
	svc.bcryptCost = bcrypt.MinCost
	return svc, repo
}

func validRequest() RegisterRequest {
	return RegisterRequest{
		Aadhaar:     "123412341234",
		Name:        "Asha Rao",
		Email:       "asha@example.com",
		Mobile:      "9876543210",
		DateOfBirth: "1990-06-15",
		Password:    "s3cret-pass",
	}
}

func descriptor() []float64 {
	d := make([]float64, 128)
	d[0] = 0.25
	return d
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		want   error
	}{
		{"short aadhaar", func(r *RegisterRequest) { r.Aadhaar = "12345" }, ErrInvalidAadhaar},
		{"letters in aadhaar", func(r *RegisterRequest) { r.Aadhaar = "12341234123a" }, ErrInvalidAadhaar},
		{"missing name", func(r *RegisterRequest) { r.Name = "  " }, ErrInvalidName},
		{"bad email", func(r *RegisterRequest) { r.Email = "asha" }, ErrInvalidEmail},
		{"bad mobile", func(r *RegisterRequest) { r.Mobile = "98765" }, ErrInvalidMobile},
		{"bad dob", func(r *RegisterRequest) { r.DateOfBirth = "15/06/1990" }, ErrInvalidDOB},
		{"future dob", func(r *RegisterRequest) { r.DateOfBirth = "2030-01-01" }, ErrInvalidDOB},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }, ErrWeakPassword},
		{"unknown language", func(r *RegisterRequest) { r.PreferredLanguage = "fr" }, ErrInvalidLanguage},
		{"short descriptor", func(r *RegisterRequest) { r.FaceDescriptor = []float64{1, 2, 3} }, ErrInvalidDescriptor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, nil)
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestRegisterStoresHashedPasswordAndDescriptor(t *testing.T) {
	faces := &fakeUploader{url: "https://cdn.example/faces/"}
	svc, repo := newTestService(t, faces)

	req := validRequest()
	req.PreferredLanguage = "hi"
	req.FaceImage = "data:image/jpeg;base64,AAAA"
	req.FaceDescriptor = descriptor()

	user, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, LanguageHindi, user.PreferredLanguage)
	assert.Equal(t, "https://cdn.example/faces/123412341234", user.FaceImageURL)
	assert.True(t, user.HasFaceDescriptor())

	stored, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, req.Password, stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(req.Password)))
	assert.JSONEq(t, mustJSON(t, descriptor()), string(stored.FaceDescriptor))
	assert.Equal(t, time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC), stored.DateOfBirth)
}

func TestRegisterContinuesWhenUploadFails(t *testing.T) {
	faces := &fakeUploader{err: errors.New("s3 down")}
	svc, _ := newTestService(t, faces)

	req := validRequest()
	req.FaceImage = "data:image/jpeg;base64,AAAA"
	user, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, faces.calls)
	assert.Empty(t, user.FaceImageURL)
}

func TestRegisterRejectsDuplicateAadhaar(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrAadhaarTaken)
}

func TestLogin(t *testing.T) {
	svc, repo := newTestService(t, nil)
	req := validRequest()
	req.DateOfBirth = "2011-03-31"
	registered, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), LoginRequest{Aadhaar: req.Aadhaar, Password: req.Password})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, registered.ID, result.User.ID)
	require.NotNil(t, result.Milestone)
	assert.Equal(t, milestone.FifteenthBirthday, result.Milestone.Type)
	assert.Equal(t, 30, result.Milestone.DaysRemaining)

	stored, err := repo.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.True(t, stored.LastLogin.Equal(testNow))

	sess, err := svc.sessions.Parse(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, sess.UserID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)

	for _, req := range []LoginRequest{
		{Aadhaar: "123412341234", Password: "wrong-password"},
		{Aadhaar: "999999999999", Password: "s3cret-pass"},
		{Aadhaar: "12", Password: "s3cret-pass"},
	} {
		_, err := svc.Login(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)
	result, err := svc.Login(context.Background(), LoginRequest{Aadhaar: "123412341234", Password: "s3cret-pass"})
	require.NoError(t, err)

	sess, err := svc.sessions.Parse(context.Background(), result.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), sess))

	_, err = svc.sessions.Parse(context.Background(), result.Token)
	assert.ErrorIs(t, err, session.ErrRevoked)
}

func TestSetLanguage(t *testing.T) {
	svc, _ := newTestService(t, nil)
	user, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)

	lang, err := svc.SetLanguage(context.Background(), user.ID, "te")
	require.NoError(t, err)
	assert.Equal(t, LanguageTelugu, lang)

	got, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, LanguageTelugu, got.PreferredLanguage)

	_, err = svc.SetLanguage(context.Background(), user.ID, "xx")
	assert.ErrorIs(t, err, ErrInvalidLanguage)
	_, err = svc.SetLanguage(context.Background(), "missing", "en")
	assert.ErrorIs(t, err, ErrNotFound)
}
