package accounts

import (
	"encoding/json"
	"net/mail"
	"strings"
	"time"

	"github.com/wolfman30/idseva-booking/internal/biometric"
	"github.com/wolfman30/idseva-booking/internal/milestone"
	"github.com/wolfman30/idseva-booking/internal/session"
)

// Language is a supported interface language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
	LanguageTelugu  Language = "te"
)

// ParseLanguage validates a language code. Empty means English.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case "", LanguageEnglish:
		return LanguageEnglish, nil
	case LanguageHindi:
		return LanguageHindi, nil
	case LanguageTelugu:
		return LanguageTelugu, nil
	}
	return "", ErrInvalidLanguage
}

// User is a registered citizen.
type User struct {
	ID                string     `json:"id"`
	Aadhaar           string     `json:"aadhaar_number"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Mobile            string     `json:"mobile"`
	DateOfBirth       time.Time  `json:"-"`
	Address           string     `json:"address,omitempty"`
	PreferredLanguage Language   `json:"preferred_language"`
	FaceImageURL      string     `json:"face_image_url,omitempty"`
	FaceDescriptor    []byte     `json:"-"`
	PasswordHash      string     `json:"-"`
	IsVerified        bool       `json:"is_verified"`
	CreatedAt         time.Time  `json:"created_at"`
	LastLogin         *time.Time `json:"last_login,omitempty"`
}

// MarshalJSON renders the date of birth as a civil date.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		DateOfBirth string `json:"date_of_birth"`
		HasFace     bool   `json:"has_face_descriptor"`
	}{alias(u), u.DateOfBirth.Format(time.DateOnly), u.HasFaceDescriptor()})
}

// HasFaceDescriptor reports whether a reference embedding is on file.
func (u *User) HasFaceDescriptor() bool {
	raw := strings.TrimSpace(string(u.FaceDescriptor))
	return raw != "" && raw != "null"
}

// Subject is what a login session carries for this user.
func (u *User) Subject() session.Subject {
	return session.Subject{UserID: u.ID, Aadhaar: u.Aadhaar, Name: u.Name}
}

// Milestone returns the upcoming age milestone, if any.
func (u *User) Milestone(today time.Time) *milestone.Info {
	return milestone.Check(u.DateOfBirth, today)
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Aadhaar           string    `json:"aadhaar_number"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Mobile            string    `json:"mobile"`
	DateOfBirth       string    `json:"date_of_birth"`
	Password          string    `json:"password"`
	PreferredLanguage string    `json:"preferred_language"`
	FaceImage         string    `json:"face_image_base64,omitempty"`
	FaceDescriptor    []float64 `json:"face_descriptor,omitempty"`
}

// Validate trims and checks the request. today bounds the date of birth.
func (r *RegisterRequest) Validate(today time.Time) (time.Time, Language, error) {
	r.Aadhaar = strings.TrimSpace(r.Aadhaar)
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Mobile = strings.TrimSpace(r.Mobile)

	if !IsAadhaar(r.Aadhaar) {
		return time.Time{}, "", ErrInvalidAadhaar
	}
	if r.Name == "" {
		return time.Time{}, "", ErrInvalidName
	}
	if !IsEmail(r.Email) {
		return time.Time{}, "", ErrInvalidEmail
	}
	if !IsMobile(r.Mobile) {
		return time.Time{}, "", ErrInvalidMobile
	}
	dob, err := milestone.ParseDOB(strings.TrimSpace(r.DateOfBirth))
	if err != nil || !dob.Before(today) {
		return time.Time{}, "", ErrInvalidDOB
	}
	if len(r.Password) < 8 {
		return time.Time{}, "", ErrWeakPassword
	}
	lang, err := ParseLanguage(r.PreferredLanguage)
	if err != nil {
		return time.Time{}, "", err
	}
	if r.FaceDescriptor != nil && !biometric.Embedding(r.FaceDescriptor).Valid() {
		return time.Time{}, "", ErrInvalidDescriptor
	}
	return dob, lang, nil
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Aadhaar  string `json:"aadhaar_number"`
	Password string `json:"password"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	User      *User           `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Milestone *milestone.Info `json:"milestone,omitempty"`
}

// IsAadhaar reports whether s is a 12-digit Aadhaar number.
func IsAadhaar(s string) bool {
	return isDigits(s, 12)
}

// IsEmail reports whether s is a bare email address.
func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// IsMobile reports whether s is a 10-digit mobile number.
func IsMobile(s string) bool {
	return isDigits(s, 10)
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
