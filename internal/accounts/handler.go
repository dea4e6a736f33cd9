package accounts

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/idseva-booking/internal/httpx"
	"github.com/wolfman30/idseva-booking/internal/milestone"
	"github.com/wolfman30/idseva-booking/internal/session"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// Handler serves the auth and profile endpoints.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates an accounts handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// PublicRoutes mounts endpoints that need no session.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
}

// Routes mounts endpoints that require a session.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/logout", h.Logout)
	r.Get("/me", h.Me)
	r.Put("/me/language", h.SetLanguage)
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	user, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httpx.Error(w, "please log in first", http.StatusUnauthorized)
		return
	}
	if err := h.svc.Logout(r.Context(), sess); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	User             *User           `json:"user"`
	Milestone        *milestone.Info `json:"milestone,omitempty"`
	MilestoneMessage string          `json:"milestone_message,omitempty"`
}

// Me handles GET /api/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httpx.Error(w, "please log in first", http.StatusUnauthorized)
		return
	}
	user, err := h.svc.Get(r.Context(), sess.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := meResponse{User: user, Milestone: user.Milestone(h.svc.Now())}
	if resp.Milestone != nil {
		resp.MilestoneMessage = resp.Milestone.Message()
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// SetLanguage handles PUT /api/me/language.
func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httpx.Error(w, "please log in first", http.StatusUnauthorized)
		return
	}
	var body struct {
		Language string `json:"language"`
	}
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	lang, err := h.svc.SetLanguage(r.Context(), sess.UserID, body.Language)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]Language{"language": lang})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsValidation(err):
		httpx.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrAadhaarTaken):
		httpx.Error(w, "Aadhaar number already registered.", http.StatusConflict)
	case errors.Is(err, ErrInvalidCredentials):
		httpx.Error(w, "Invalid Aadhaar number or password.", http.StatusUnauthorized)
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, "user not found", http.StatusNotFound)
	default:
		h.logger.Error("accounts request failed", "error", err, "path", r.URL.Path)
		httpx.Error(w, "something went wrong, please try again", http.StatusInternalServerError)
	}
}
