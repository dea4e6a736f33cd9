package updates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/idseva-booking/internal/accounts"
	"github.com/wolfman30/idseva-booking/internal/audit"
	"github.com/wolfman30/idseva-booking/internal/biometric"
	"github.com/wolfman30/idseva-booking/internal/notify"
	"github.com/wolfman30/idseva-booking/internal/observability/metrics"
	"github.com/wolfman30/idseva-booking/internal/session"
	"github.com/wolfman30/idseva-booking/internal/verification"
	"github.com/wolfman30/idseva-booking/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var updatesTracer = otel.Tracer("idseva.internal.updates")

// Users loads the account a session belongs to.
type Users interface {
	Get(ctx context.Context, id string) (*accounts.User, error)
}

// FaceGate verifies live captures against the stored reference.
type FaceGate interface {
	Check(ctx context.Context, userID string, flow biometric.Flow, stored []byte, captures [][]float64) (biometric.Decision, error)
}

// ActionLogger records submissions in the audit trail.
type ActionLogger interface {
	LogAction(ctx context.Context, userID string, eventType audit.EventType, subjectID string) error
}

// Service accepts and lists profile update requests.
type Service struct {
	repo    Repository
	users   Users
	gate    FaceGate
	notify  *notify.Service
	audit   ActionLogger
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewService wires the update service. notifier, auditor and m may be nil.
func NewService(repo Repository, users Users, gate FaceGate, notifier *notify.Service, auditor ActionLogger, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		users:   users,
		gate:    gate,
		notify:  notifier,
		audit:   auditor,
		metrics: m,
		logger:  logger,
	}
}

// newValue validates the requested change against the current profile.
func newValue(t Type, req SubmitRequest, user *accounts.User) (string, error) {
	switch t {
	case TypeAddress:
		if req.Address == nil {
			return "", ErrAddressIncomplete
		}
		value, err := req.Address.Format()
		if err != nil {
			return "", err
		}
		if value == user.Address {
			return "", ErrSameValue
		}
		return value, nil
	case TypeMobile:
		value := strings.TrimSpace(req.Value)
		if value == "" {
			return "", ErrValueRequired
		}
		if value == user.Mobile {
			return "", ErrSameValue
		}
		if !accounts.IsMobile(value) {
			return "", ErrInvalidMobile
		}
		return value, nil
	case TypeEmail:
		value := strings.TrimSpace(req.Value)
		if value == "" {
			return "", ErrValueRequired
		}
		if strings.EqualFold(value, user.Email) {
			return "", ErrSameValue
		}
		if !accounts.IsEmail(value) {
			return "", ErrInvalidEmail
		}
		return value, nil
	}
	return "", ErrInvalidType
}

// Submit validates the change, verifies the citizen's face and files a
// pending request.
func (s *Service) Submit(ctx context.Context, sess session.Session, req SubmitRequest) (_ *Request, err error) {
	ctx, span := updatesTracer.Start(ctx, "updates.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("idseva.user_id", sess.UserID),
		attribute.String("idseva.update_type", req.Type),
		attribute.Int("idseva.captures", len(req.Captures)),
	)
	defer func() {
		label := "unknown"
		if t, perr := ParseType(req.Type); perr == nil {
			label = string(t)
		}
		s.metrics.ObserveUpdateRequest(label, submitResult(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	t, err := ParseType(req.Type)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("updates: load user: %w", err)
	}
	value, err := newValue(t, req, user)
	if err != nil {
		return nil, err
	}

	pending, err := s.repo.HasPending(ctx, user.ID, t)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrPendingExists
	}

	if _, err := s.gate.Check(ctx, user.ID, biometric.FlowProfileUpdate, user.FaceDescriptor, req.Captures); err != nil {
		return nil, err
	}

	request := &Request{UserID: user.ID, Type: t, NewValue: value, Status: StatusPending}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("idseva.request_id", request.ID))

	s.logger.Info("update request submitted", "request_id", request.ID, "user_id", user.ID, "type", string(t))
	if s.audit != nil {
		if aerr := s.audit.LogAction(ctx, user.ID, audit.EventUpdateSubmitted, request.ID); aerr != nil {
			s.logger.Warn("failed to audit update request", "request_id", request.ID, "error", aerr)
		}
	}
	notice := notify.UpdateNotice{
		Email:     user.Email,
		Name:      user.Name,
		RequestID: request.ID,
		Type:      t.Label(),
		NewValue:  value,
	}
	if nerr := s.notify.UpdateSubmitted(ctx, notice); nerr != nil {
		s.logger.Warn("update request email failed", "request_id", request.ID, "error", nerr)
	}
	return request, nil
}

// List returns the user's requests, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Request, error) {
	return s.repo.ListForUser(ctx, userID)
}

func submitResult(err error) string {
	var rejected *verification.RejectedError
	switch {
	case err == nil:
		return "submitted"
	case IsValidation(err):
		return "invalid"
	case errors.Is(err, ErrPendingExists):
		return "pending_exists"
	case errors.As(err, &rejected):
		return "verification_failed"
	case errors.Is(err, biometric.ErrNoValidCapture),
		errors.Is(err, biometric.ErrInvalidReference),
		errors.Is(err, biometric.ErrNoReference):
		return "verification_error"
	default:
		return "error"
	}
}
