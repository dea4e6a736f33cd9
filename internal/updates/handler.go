package updates

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/idseva-booking/internal/accounts"
	"github.com/wolfman30/idseva-booking/internal/httpx"
	"github.com/wolfman30/idseva-booking/internal/session"
	"github.com/wolfman30/idseva-booking/internal/verification"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// Handler serves the profile update endpoints.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates an updates handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts endpoints that require a session.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/updates", h.Submit)
	r.Get("/updates", h.List)
}

type requestView struct {
	Request
	StatusLabel string  `json:"status_label"`
	Progress    int     `json:"progress"`
	Stages      []Stage `json:"stages"`
}

func newRequestView(r Request) requestView {
	return requestView{Request: r, StatusLabel: r.Status.Label(), Progress: r.Status.Progress(), Stages: Stages}
}

// Submit handles POST /api/updates.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httpx.Error(w, "please log in first", http.StatusUnauthorized)
		return
	}
	var req SubmitRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	created, err := h.svc.Submit(r.Context(), sess, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"request": newRequestView(*created),
		"message": "Face Verified. Your update request has been submitted successfully.",
	})
}

// List handles GET /api/updates.
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
	views := make([]requestView, 0, len(list))
	for _, req := range list {
		views = append(views, newRequestView(req))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"requests": views})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if verification.WriteError(w, err) {
		return
	}
	switch {
	case IsValidation(err):
		httpx.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrPendingExists):
		httpx.Error(w, "You already have a pending request for this update type", http.StatusConflict)
	case errors.Is(err, accounts.ErrNotFound):
		httpx.Error(w, "please log in first", http.StatusUnauthorized)
	default:
		h.logger.Error("updates request failed", "error", err, "path", r.URL.Path)
		httpx.Error(w, "something went wrong, please try again", http.StatusInternalServerError)
	}
}
