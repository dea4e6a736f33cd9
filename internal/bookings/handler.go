package bookings

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/idseva-booking/internal/accounts"
	"github.com/wolfman30/idseva-booking/internal/httpx"
	"github.com/wolfman30/idseva-booking/internal/session"
	"github.com/wolfman30/idseva-booking/internal/slots"
	"github.com/wolfman30/idseva-booking/internal/verification"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// Handler serves the booking endpoints.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// PublicRoutes mounts endpoints that need no session.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/update-types", h.ListUpdateTypes)
}

// Routes mounts endpoints that require a session.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/bookings", h.Confirm)
	r.Get("/bookings", h.List)
	r.Post("/bookings/{bookingID}/cancel", h.Cancel)
}

// bookingView adds display fields and the tracking stage to a booking.
type bookingView struct {
	Booking
	DisplayDate string   `json:"display_date,omitempty"`
	DisplayTime string   `json:"display_time,omitempty"`
	Progress    int      `json:"progress"`
	Stages      []Status `json:"stages"`
	Documents   []string `json:"documents"`
}

func newBookingView(b Booking) bookingView {
	v := bookingView{
		Booking:   b,
		Progress:  b.Status.Progress(),
		Stages:    Stages,
		Documents: RequiredDocuments(b.UpdateType),
	}
	if b.Slot != nil {
		v.DisplayDate, v.DisplayTime = displayWhen(*b.Slot)
	}
	return v
}

type confirmResponse struct {
	Booking          bookingView `json:"booking"`
	Message          string      `json:"message"`
	Verification     string      `json:"verification_message"`
	Confidence       int         `json:"confidence"`
	MilestoneMessage string      `json:"milestone_message,omitempty"`
}

// Confirm handles POST /api/bookings.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httpx.Error(w, "please log in first", http.StatusUnauthorized)
		return
	}
	var req ConfirmRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	conf, err := h.svc.Confirm(r.Context(), sess, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, confirmResponse{
		Booking:          newBookingView(*conf.Booking),
		Message:          "Booking confirmed successfully!",
		Verification:     conf.Decision.Message(),
		Confidence:       conf.Decision.Confidence,
		MilestoneMessage: conf.MilestoneMessage,
	})
}

// List handles GET /api/bookings.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httpx.Error(w, "please log in first", http.StatusUnauthorized)
		return
	}
	list, err := h.svc.List(r.Context(), sess.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]bookingView, 0, len(list))
	for _, b := range list {
		views = append(views, newBookingView(b))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"bookings": views})
}

// Cancel handles POST /api/bookings/{bookingID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httpx.Error(w, "please log in first", http.StatusUnauthorized)
		return
	}
	b, err := h.svc.Cancel(r.Context(), sess.UserID, chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"booking": newBookingView(*b)})
}

// ListUpdateTypes handles GET /api/update-types.
func (h *Handler) ListUpdateTypes(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"update_types": UpdateTypes()})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if verification.WriteError(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrInvalidUpdateType), errors.Is(err, ErrSlotRequired), errors.Is(err, ErrOutsideWindow):
		httpx.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, slots.ErrSlotNotFound):
		httpx.Error(w, "this slot no longer exists, please pick another", http.StatusNotFound)
	case errors.Is(err, ErrSlotFull):
		httpx.Error(w, "this slot is fully booked, please pick another", http.StatusConflict)
	case errors.Is(err, ErrDuplicateBooking):
		httpx.Error(w, "You have already booked this slot.", http.StatusConflict)
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, "booking not found", http.StatusNotFound)
	case errors.Is(err, ErrNotCancellable):
		httpx.Error(w, "this booking can no longer be cancelled", http.StatusConflict)
	case errors.Is(err, accounts.ErrNotFound):
		httpx.Error(w, "please log in first", http.StatusUnauthorized)
	default:
		h.logger.Error("bookings request failed", "error", err, "path", r.URL.Path)
		httpx.Error(w, "Booking failed. Please try again.", http.StatusInternalServerError)
	}
}
