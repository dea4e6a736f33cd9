package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/idseva-booking/internal/httpx"
	"github.com/wolfman30/idseva-booking/internal/session"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// RequireSession rejects requests without a valid bearer session token and
// stores the resolved session in the request context.
func RequireSession(manager *session.Manager, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.Error(w, "please log in first", http.StatusUnauthorized)
				return
			}
			sess, err := manager.Parse(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrRevoked):
				httpx.Error(w, "session expired, please log in again", http.StatusUnauthorized)
				return
			default:
				logger.Error("session lookup failed", "error", err, "path", r.URL.Path)
				httpx.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return token, token != ""
}
