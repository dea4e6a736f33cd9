package audit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/idseva-booking/internal/httpx"
	"github.com/wolfman30/idseva-booking/internal/session"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// Handler lets citizens read their own audit trail.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates an audit handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts endpoints that require a session.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/me/activity", h.ListActivity)
}

// ListActivity handles GET /api/me/activity?limit=N.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httpx.Error(w, "please log in first", http.StatusUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.svc.ListForUser(r.Context(), sess.UserID, limit)
	if err != nil {
		h.logger.Error("failed to list activity", "error", err, "user_id", sess.UserID)
		httpx.Error(w, "something went wrong, please try again", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
