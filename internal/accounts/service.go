package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/idseva-booking/internal/session"
	"github.com/wolfman30/idseva-booking/pkg/logging"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used for new accounts.
const PasswordCost = 12

// FaceUploader stores registration face images and returns their URL.
type FaceUploader interface {
	SaveFace(ctx context.Context, aadhaar, image string) (string, error)
}

// Service implements registration, login and profile reads.
type Service struct {
	repo       Repository
	faces      FaceUploader
	sessions   *session.Manager
	logger     *logging.Logger
	now        func() time.Time
	bcryptCost int
}

// NewService wires the account service. faces may be nil.
func NewService(repo Repository, faces FaceUploader, sessions *session.Manager, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:       repo,
		faces:      faces,
		sessions:   sessions,
		logger:     logger,
		now:        time.Now,
		bcryptCost: PasswordCost,
	}
}

// Register creates an account. A failed face upload is logged and the
// account is created without an image URL.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	dob, lang, err := req.Validate(s.now())
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByAadhaar(ctx, req.Aadhaar); err == nil {
		return nil, ErrAadhaarTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("accounts: lookup aadhaar: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("accounts: hash password: %w", err)
	}

	user := &User{
		Aadhaar:           req.Aadhaar,
		Name:              req.Name,
		Email:             req.Email,
		Mobile:            req.Mobile,
		DateOfBirth:       dob,
		PreferredLanguage: lang,
		PasswordHash:      string(hash),
	}
	if req.FaceDescriptor != nil {
		raw, err := json.Marshal(req.FaceDescriptor)
		if err != nil {
			return nil, fmt.Errorf("accounts: encode descriptor: %w", err)
		}
		user.FaceDescriptor = raw
	}
	if req.FaceImage != "" && s.faces != nil {
		url, err := s.faces.SaveFace(ctx, req.Aadhaar, req.FaceImage)
		if err != nil {
			s.logger.Warn("face image upload failed", "error", err)
		} else {
			user.FaceImageURL = url
		}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "has_face", user.HasFaceDescriptor())
	return user, nil
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if !IsAadhaar(req.Aadhaar) || req.Password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.repo.GetByAadhaar(ctx, req.Aadhaar)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("accounts: lookup aadhaar: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("login rejected", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	} else {
		at := now.UTC()
		user.LastLogin = &at
	}

	token, sess, err := s.sessions.Issue(user.Subject())
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &LoginResult{
		User:      user,
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		Milestone: user.Milestone(now),
	}, nil
}

// Logout revokes the session's token.
func (s *Service) Logout(ctx context.Context, sess session.Session) error {
	return s.sessions.Revoke(ctx, sess)
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// SetLanguage stores the user's preferred language.
func (s *Service) SetLanguage(ctx context.Context, id, lang string) (Language, error) {
	parsed, err := ParseLanguage(lang)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetLanguage(ctx, id, parsed); err != nil {
		return "", err
	}
	return parsed, nil
}

// Now is the clock used for milestone checks.
func (s *Service) Now() time.Time {
	return s.now()
}
