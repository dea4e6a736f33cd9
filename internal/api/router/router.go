package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/idseva-booking/internal/accounts"
	"github.com/wolfman30/idseva-booking/internal/assistant"
	"github.com/wolfman30/idseva-booking/internal/audit"
	"github.com/wolfman30/idseva-booking/internal/bookings"
	httpmiddleware "github.com/wolfman30/idseva-booking/internal/http/middleware"
	"github.com/wolfman30/idseva-booking/internal/httpx"
	"github.com/wolfman30/idseva-booking/internal/session"
	"github.com/wolfman30/idseva-booking/internal/slots"
	"github.com/wolfman30/idseva-booking/internal/updates"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger   *logging.Logger
	Sessions *session.Manager

	Accounts  *accounts.Handler
	Slots     *slots.Handler
	Bookings  *bookings.Handler
	Updates   *updates.Handler
	Assistant *assistant.Handler
	Activity  *audit.Handler

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter

	// Ready reports whether backing stores are reachable (optional).
	Ready func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		public.Get("/ready", readyHandler(cfg.Ready))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}

		if cfg.Accounts != nil {
			cfg.Accounts.PublicRoutes(api)
		}
		if cfg.Slots != nil {
			cfg.Slots.Routes(api)
		}
		if cfg.Bookings != nil {
			cfg.Bookings.PublicRoutes(api)
		}
		if cfg.Assistant != nil {
			cfg.Assistant.Routes(api)
		}

		if cfg.Sessions == nil {
			return
		}
		api.Group(func(authed chi.Router) {
			authed.Use(httpmiddleware.RequireSession(cfg.Sessions, cfg.Logger))
			if cfg.Accounts != nil {
				cfg.Accounts.Routes(authed)
			}
			if cfg.Bookings != nil {
				cfg.Bookings.Routes(authed)
			}
			if cfg.Updates != nil {
				cfg.Updates.Routes(authed)
			}
			if cfg.Activity != nil {
				cfg.Activity.Routes(authed)
			}
		})
	})

	return r
}

func readyHandler(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
