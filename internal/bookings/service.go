package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/wolfman30/idseva-booking/internal/accounts"
	"github.com/wolfman30/idseva-booking/internal/audit"
	"github.com/wolfman30/idseva-booking/internal/biometric"
	"github.com/wolfman30/idseva-booking/internal/notify"
	"github.com/wolfman30/idseva-booking/internal/observability/metrics"
	"github.com/wolfman30/idseva-booking/internal/recommend"
	"github.com/wolfman30/idseva-booking/internal/session"
	"github.com/wolfman30/idseva-booking/internal/slots"
	"github.com/wolfman30/idseva-booking/internal/verification"
	"github.com/wolfman30/idseva-booking/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var bookingsTracer = otel.Tracer("idseva.internal.bookings")

// Reference codes are short enough to read out at the counter and avoid
// look-alike characters.
const (
	referenceAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	referenceLength   = 7
	referenceAttempts = 3
)

// Users loads the account a session belongs to.
type Users interface {
	Get(ctx context.Context, id string) (*accounts.User, error)
}

// FaceGate verifies live captures against the stored reference.
type FaceGate interface {
	Check(ctx context.Context, userID string, flow biometric.Flow, stored []byte, captures [][]float64) (biometric.Decision, error)
}

// ActionLogger records booking actions in the audit trail.
type ActionLogger interface {
	LogAction(ctx context.Context, userID string, eventType audit.EventType, subjectID string) error
}

// Confirmation is the result of a successful booking.
type Confirmation struct {
	Booking          *Booking           `json:"booking"`
	Decision         biometric.Decision `json:"verification"`
	Documents        []string           `json:"documents"`
	MilestoneMessage string             `json:"milestone_message,omitempty"`
}

// Service books and cancels appointments.
type Service struct {
	repo    Repository
	slots   slots.Repository
	users   Users
	gate    FaceGate
	notify  *notify.Service
	audit   ActionLogger
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
	now     func() time.Time
	newRef  func() (string, error)

	windowDays int
}

// NewService wires the booking service. notifier, auditor and m may be nil.
func NewService(repo Repository, slotRepo slots.Repository, users Users, gate FaceGate, notifier *notify.Service, auditor ActionLogger, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		slots:   slotRepo,
		users:   users,
		gate:    gate,
		notify:  notifier,
		audit:   auditor,
		metrics: m,
		logger:  logger,
		now:     time.Now,
		newRef: func() (string, error) {
			return gonanoid.Generate(referenceAlphabet, referenceLength)
		},
		windowDays: slots.DefaultWindowDays,
	}
}

// WithWindow sets how many days ahead, counting today, a slot may be booked.
// Non-positive values keep the default.
func (s *Service) WithWindow(days int) *Service {
	if days > 0 {
		s.windowDays = days
	}
	return s
}

// Confirm verifies the citizen's face and books a seat in the requested slot.
func (s *Service) Confirm(ctx context.Context, sess session.Session, req ConfirmRequest) (conf *Confirmation, err error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.confirm")
	defer span.End()
	span.SetAttributes(
		attribute.String("idseva.user_id", sess.UserID),
		attribute.String("idseva.slot_id", req.SlotID),
		attribute.Int("idseva.captures", len(req.Captures)),
	)
	defer func() {
		s.metrics.ObserveBooking(bookingResult(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	updateType, err := req.Validate()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("idseva.update_type", string(updateType)))

	user, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("bookings: load user: %w", err)
	}

	decision, err := s.gate.Check(ctx, user.ID, biometric.FlowBooking, user.FaceDescriptor, req.Captures)
	if err != nil {
		return nil, err
	}

	slot, err := s.slots.GetSlot(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	if !slots.InWindow(slot.Date, s.now(), s.windowDays) {
		return nil, ErrOutsideWindow
	}
	if slot.IsFull() {
		return nil, ErrSlotFull
	}

	active, err := s.repo.HasActive(ctx, user.ID, slot.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrDuplicateBooking
	}

	now := s.now()
	info := user.Milestone(now)
	booking := &Booking{
		UserID:      user.ID,
		SlotID:      slot.ID,
		Status:      StatusBooked,
		BookingType: TypeNormal,
		UpdateType:  updateType,
	}
	if info != nil {
		booking.BookingType = TypeAgeMilestone
	}
	if err := s.create(ctx, booking); err != nil {
		return nil, err
	}
	booking.Slot = slot
	span.SetAttributes(
		attribute.String("idseva.booking_id", booking.ID),
		attribute.String("idseva.booking_type", booking.BookingType),
	)

	conf = &Confirmation{
		Booking:   booking,
		Decision:  decision,
		Documents: RequiredDocuments(updateType),
	}
	if info != nil {
		conf.MilestoneMessage = info.Message()
	}

	s.logger.Info("booking confirmed",
		"booking_id", booking.ID,
		"reference", booking.Reference,
		"user_id", user.ID,
		"slot_id", slot.ID,
		"booking_type", booking.BookingType,
	)
	s.logAction(ctx, user.ID, audit.EventBookingConfirmed, booking.ID)
	if nerr := s.notify.BookingConfirmed(ctx, bookingNotice(user, booking, conf.Documents, conf.MilestoneMessage)); nerr != nil {
		s.logger.Warn("booking confirmation email failed", "booking_id", booking.ID, "error", nerr)
	}
	return conf, nil
}

func (s *Service) create(ctx context.Context, b *Booking) error {
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		ref, err := s.newRef()
		if err != nil {
			return fmt.Errorf("bookings: generate reference: %w", err)
		}
		b.Reference = ref
		err = s.repo.Create(ctx, b)
		if !errors.Is(err, ErrReferenceTaken) {
			return err
		}
	}
	return fmt.Errorf("bookings: no free reference after %d attempts: %w", referenceAttempts, ErrReferenceTaken)
}

// List returns the user's bookings, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Booking, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Cancel cancels one of the user's active bookings and frees its seat.
func (s *Service) Cancel(ctx context.Context, userID, bookingID string) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.cancel")
	defer span.End()
	span.SetAttributes(
		attribute.String("idseva.user_id", userID),
		attribute.String("idseva.booking_id", bookingID),
	)

	booking, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotFound
	}
	if !booking.Status.Cancellable() {
		return nil, ErrNotCancellable
	}
	if err := s.repo.Cancel(ctx, booking.ID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	booking.Status = StatusCancelled
	if booking.Slot != nil && booking.Slot.BookedCount > 0 {
		booking.Slot.BookedCount--
	}

	s.metrics.ObserveCancellation()
	s.logger.Info("booking cancelled", "booking_id", booking.ID, "user_id", userID)
	s.logAction(ctx, userID, audit.EventBookingCancelled, booking.ID)

	if user, uerr := s.users.Get(ctx, userID); uerr == nil {
		if nerr := s.notify.BookingCancelled(ctx, bookingNotice(user, booking, nil, "")); nerr != nil {
			s.logger.Warn("booking cancellation email failed", "booking_id", booking.ID, "error", nerr)
		}
	}
	return booking, nil
}

func (s *Service) logAction(ctx context.Context, userID string, eventType audit.EventType, subjectID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogAction(ctx, userID, eventType, subjectID); err != nil {
		s.logger.Warn("failed to audit booking action", "event_type", string(eventType), "error", err)
	}
}

func bookingNotice(user *accounts.User, b *Booking, documents []string, milestoneMessage string) notify.BookingNotice {
	n := notify.BookingNotice{
		Email:            user.Email,
		Name:             user.Name,
		Reference:        b.Reference,
		UpdateType:       string(b.UpdateType),
		BookingType:      b.BookingType,
		Documents:        documents,
		MilestoneMessage: milestoneMessage,
	}
	if b.Slot != nil {
		n.Date, n.Time = displayWhen(*b.Slot)
		if b.Slot.Center != nil {
			n.CenterName = b.Slot.Center.Name
			n.CenterAddress = b.Slot.Center.Address
		}
	}
	return n
}

func displayWhen(slot recommend.Slot) (date, clock string) {
	date = slot.Date
	if day, err := time.Parse(time.DateOnly, slot.Date); err == nil {
		date = recommend.FormatDate(day)
	}
	return date, recommend.FormatTime(slot.Time)
}

func bookingResult(err error) string {
	var rejected *verification.RejectedError
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, ErrSlotFull):
		return "slot_full"
	case errors.Is(err, ErrDuplicateBooking):
		return "duplicate"
	case errors.Is(err, ErrInvalidUpdateType), errors.Is(err, ErrSlotRequired), errors.Is(err, ErrOutsideWindow):
		return "invalid"
	case errors.Is(err, slots.ErrSlotNotFound):
		return "slot_not_found"
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
