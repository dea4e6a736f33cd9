// Package session issues and resolves signed login sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned for malformed, expired or badly signed tokens.
	ErrInvalidToken = errors.New("session: invalid token")
	// ErrRevoked is returned for tokens that were logged out.
	ErrRevoked = errors.New("session: token revoked")
)

// DefaultTTL is used when the manager is built with a zero TTL.
const DefaultTTL = 12 * time.Hour

// Session identifies the logged-in citizen for one request.
type Session struct {
	UserID    string    `json:"user_id"`
	Aadhaar   string    `json:"aadhaar"`
	Name      string    `json:"name"`
	TokenID   string    `json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Subject is the account a session is issued for.
type Subject struct {
	UserID  string
	Aadhaar string
	Name    string
}

type claims struct {
	Aadhaar string `json:"aadhaar"`
	Name    string `json:"name"`
	jwt.RegisteredClaims
}

// Revoker records logged-out token IDs.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Manager signs session tokens with an HMAC secret.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	revoker Revoker
	now     func() time.Time
}

// NewManager builds a Manager. revoker may be nil, in which case logout only
// discards the token client side.
func NewManager(secret string, ttl time.Duration, revoker Revoker) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session: secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl, revoker: revoker, now: time.Now}, nil
}

// Issue creates a signed token for subject.
func (m *Manager) Issue(subject Subject) (string, Session, error) {
	now := m.now().UTC().Truncate(time.Second)
	sess := Session{
		UserID:    subject.UserID,
		Aadhaar:   subject.Aadhaar,
		Name:      subject.Name,
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}
	c := claims{
		Aadhaar: sess.Aadhaar,
		Name:    sess.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.TokenID,
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("session: sign: %w", err)
	}
	return token, sess, nil
}

// Parse verifies token and returns the session it carries.
func (m *Manager) Parse(ctx context.Context, token string) (Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid || c.Subject == "" || c.ID == "" {
		return Session{}, ErrInvalidToken
	}

	if m.revoker != nil {
		revoked, err := m.revoker.IsRevoked(ctx, c.ID)
		if err != nil {
			return Session{}, fmt.Errorf("session: check revocation: %w", err)
		}
		if revoked {
			return Session{}, ErrRevoked
		}
	}

	sess := Session{
		UserID:  c.Subject,
		Aadhaar: c.Aadhaar,
		Name:    c.Name,
		TokenID: c.ID,
	}
	if c.IssuedAt != nil {
		sess.IssuedAt = c.IssuedAt.Time.UTC()
	}
	if c.ExpiresAt != nil {
		sess.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return sess, nil
}

// Revoke invalidates the session's token until it would have expired.
func (m *Manager) Revoke(ctx context.Context, sess Session) error {
	if m.revoker == nil || sess.TokenID == "" {
		return nil
	}
	if err := m.revoker.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return nil
}
