package session

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var citizen = Subject{UserID: "user-1", Aadhaar: "123412341234", Name: "Asha Rao"}

func TestIssueAndParse(t *testing.T) {
	m, err := NewManager("secret", time.Hour, nil)
	require.NoError(t, err)

	token, issued, err := m.Issue(citizen)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)
	assert.Equal(t, time.Hour, issued.ExpiresAt.Sub(issued.IssuedAt))

	got, err := m.Parse(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, issued, got)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("", time.Hour, nil)
	assert.Error(t, err)

	m, err := NewManager("secret", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, m.ttl)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewManager("secret-a", time.Hour, nil)
	verifier, _ := NewManager("secret-b", time.Hour, nil)

	token, _, err := issuer.Issue(citizen)
	require.NoError(t, err)

	_, err = verifier.Parse(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	m, _ := NewManager("secret", time.Hour, nil)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.Issue(citizen)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	m, _ := NewManager("secret", time.Hour, nil)
	_, err := m.Parse(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m, _ := NewManager("secret", time.Hour, NewRedisRevoker(client))
	ctx := context.Background()

	token, sess, err := m.Issue(citizen)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, sess))
	assert.True(t, mr.Exists("session:revoked:"+sess.TokenID))
	ttl := mr.TTL("session:revoked:" + sess.TokenID)
	assert.True(t, ttl > 0 && ttl <= time.Hour, "ttl %s", ttl)

	_, err = m.Parse(ctx, token)
	assert.ErrorIs(t, err, ErrRevoked)

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("session:revoked:"+sess.TokenID))
}

func TestRedisRevokerSkipsExpiredTokens(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedisRevoker(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	require.NoError(t, r.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("session:revoked:old"))
}

func TestMemoryRevoker(t *testing.T) {
	r := NewMemoryRevoker()
	ctx := context.Background()

	require.NoError(t, r.Revoke(ctx, "tok", time.Now().Add(time.Minute)))
	revoked, err := r.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	r.now = func() time.Time { return time.Now().Add(time.Hour) }
	revoked, err = r.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), Session{UserID: "user-1"})
	sess, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-1", sess.UserID)

	_, ok = FromContext(WithSession(context.Background(), Session{}))
	assert.False(t, ok)
}
