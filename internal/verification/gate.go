// Package verification runs the face check that guards bookings and profile
// updates and records its outcome.
package verification

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/wolfman30/idseva-booking/internal/audit"
	"github.com/wolfman30/idseva-booking/internal/biometric"
	"github.com/wolfman30/idseva-booking/internal/httpx"
	"github.com/wolfman30/idseva-booking/internal/observability/metrics"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// RejectedError is returned when the live face does not match. It carries
// the decision so callers can show the confidence.
type RejectedError struct {
	Decision biometric.Decision
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("verification: face mismatch (avg distance %.3f, threshold %.2f)",
		e.Decision.AvgDistance, e.Decision.Threshold)
}

// Auditor records verification outcomes.
type Auditor interface {
	LogVerification(ctx context.Context, userID, flow string, eventType audit.EventType, details audit.VerificationDetails) error
}

// Gate verifies live captures against a stored reference.
type Gate struct {
	verifier *biometric.Verifier
	metrics  *metrics.BookingMetrics
	auditor  Auditor
	logger   *logging.Logger
}

// NewGate creates a gate. m and auditor may be nil.
func NewGate(verifier *biometric.Verifier, m *metrics.BookingMetrics, auditor Auditor, logger *logging.Logger) *Gate {
	if logger == nil {
		logger = logging.Default()
	}
	if verifier == nil {
		verifier = biometric.NewVerifier(biometric.DefaultThresholds())
	}
	return &Gate{verifier: verifier, metrics: m, auditor: auditor, logger: logger}
}

// Check returns the accepting decision, a *RejectedError on mismatch, or one
// of the biometric sentinel errors.
func (g *Gate) Check(ctx context.Context, userID string, flow biometric.Flow, stored []byte, captures [][]float64) (biometric.Decision, error) {
	decision, err := g.verifier.Verify(flow, stored, captures)

	var (
		result    string
		eventType audit.EventType
	)
	switch {
	case err == nil && decision.Accepted:
		result, eventType = "accepted", audit.EventVerificationAccepted
	case err == nil:
		result, eventType = "rejected", audit.EventVerificationRejected
	case errors.Is(err, biometric.ErrNoValidCapture):
		result, eventType = "no_valid_capture", audit.EventNoValidCapture
	case errors.Is(err, biometric.ErrInvalidReference):
		result, eventType = "invalid_reference", audit.EventInvalidReference
	case errors.Is(err, biometric.ErrNoReference):
		result, eventType = "no_reference", audit.EventNoReference
	default:
		return biometric.Decision{}, err
	}

	g.metrics.ObserveVerification(string(flow), result, err == nil, decision.AvgDistance)
	g.logger.Info("face verification",
		"user_id", userID,
		"flow", string(flow),
		"result", result,
		"avg_distance", decision.AvgDistance,
		"valid_frames", decision.ValidFrames,
	)
	if result == "invalid_reference" {
		g.logger.Error("stored face descriptor is corrupt", "user_id", userID, "error", err)
	}
	if g.auditor != nil {
		details := audit.VerificationDetails{
			AvgDistance: decision.AvgDistance,
			Confidence:  decision.Confidence,
			Threshold:   decision.Threshold,
			ValidFrames: decision.ValidFrames,
			Captures:    len(captures),
		}
		if aerr := g.auditor.LogVerification(ctx, userID, string(flow), eventType, details); aerr != nil {
			g.logger.Warn("failed to audit verification", "error", aerr, "user_id", userID)
		}
	}

	if err != nil {
		return biometric.Decision{}, err
	}
	if !decision.Accepted {
		return decision, &RejectedError{Decision: decision}
	}
	return decision, nil
}

type rejectionBody struct {
	Error       string  `json:"error"`
	Confidence  int     `json:"confidence"`
	AvgDistance float64 `json:"avg_distance"`
}

// WriteError maps verification errors to HTTP responses and reports whether
// err was one of them.
func WriteError(w http.ResponseWriter, err error) bool {
	var rejected *RejectedError
	switch {
	case errors.As(err, &rejected):
		httpx.WriteJSON(w, http.StatusForbidden, rejectionBody{
			Error:       rejected.Decision.Message() + " Please try again.",
			Confidence:  rejected.Decision.Confidence,
			AvgDistance: rejected.Decision.AvgDistance,
		})
	case errors.Is(err, biometric.ErrNoValidCapture):
		httpx.Error(w, "could not read your face clearly, please capture again", http.StatusUnprocessableEntity)
	case errors.Is(err, biometric.ErrInvalidReference):
		httpx.Error(w, "your stored face data is corrupted (data integrity error). Please update your profile biometrics at a center.", http.StatusConflict)
	case errors.Is(err, biometric.ErrNoReference):
		httpx.Error(w, "no face is registered for this account. Please register your face first.", http.StatusConflict)
	default:
		return false
	}
	return true
}
