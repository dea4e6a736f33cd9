package slots

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/idseva-booking/internal/httpx"
	"github.com/wolfman30/idseva-booking/internal/observability/metrics"
	"github.com/wolfman30/idseva-booking/internal/recommend"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// Handler serves centers, bookable dates and ranked slots.
type Handler struct {
	repo       Repository
	metrics    *metrics.BookingMetrics
	logger     *logging.Logger
	windowDays int
	now        func() time.Time
}

// NewHandler creates a slots handler. m may be nil.
func NewHandler(repo Repository, windowDays int, m *metrics.BookingMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Handler{repo: repo, metrics: m, logger: logger, windowDays: windowDays, now: time.Now}
}

// Routes mounts the slot endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/dates", h.ListDates)
	r.Get("/centers", h.ListCenters)
	r.Get("/centers/{centerID}/slots", h.ListSlots)
}

// ListDates handles GET /api/dates.
func (h *Handler) ListDates(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"dates": AvailableDates(h.now(), h.windowDays)})
}

// ListCenters handles GET /api/centers.
func (h *Handler) ListCenters(w http.ResponseWriter, r *http.Request) {
	centers, err := h.repo.ListCenters(r.Context())
	if err != nil {
		h.logger.Error("failed to list centers", "error", err)
		httpx.Error(w, "failed to load centers", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"centers": centers})
}

type slotView struct {
	recommend.ScoredSlot
	DisplayTime string `json:"display_time"`
	Remaining   int    `json:"remaining"`
}

// ListSlots handles GET /api/centers/{centerID}/slots?date=YYYY-MM-DD and
// returns the day's open slots ranked best first.
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	centerID := chi.URLParam(r, "centerID")
	date := r.URL.Query().Get("date")
	if _, err := ParseDate(date); err != nil {
		httpx.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if !InWindow(date, h.now(), h.windowDays) {
		httpx.Error(w, "date is outside the booking window", http.StatusBadRequest)
		return
	}

	slots, err := h.repo.ListSlots(r.Context(), centerID, date)
	if errors.Is(err, ErrCenterNotFound) {
		httpx.Error(w, "center not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to list slots", "error", err, "center_id", centerID, "date", date)
		httpx.Error(w, "failed to load slots", http.StatusInternalServerError)
		return
	}

	ranked := recommend.Recommend(slots)
	h.metrics.ObserveRecommendation(len(ranked) > 0)

	views := make([]slotView, 0, len(ranked))
	for _, s := range ranked {
		views = append(views, slotView{
			ScoredSlot:  s,
			DisplayTime: recommend.FormatTime(s.Time),
			Remaining:   s.Remaining(),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"center_id": centerID,
		"date":      date,
		"slots":     views,
	})
}
