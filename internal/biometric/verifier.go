package biometric

import "fmt"

// Flow identifies the caller of a verification; each flow has its own threshold.
type Flow string

const (
	FlowBooking       Flow = "booking"
	FlowProfileUpdate Flow = "profile_update"
)

// Default thresholds, tuned empirically against the Euclidean metric.
const (
	DefaultBookingThreshold       = 0.45
	DefaultProfileUpdateThreshold = 0.5
)

// Thresholds holds the per-flow acceptance thresholds.
type Thresholds struct {
	Booking       float64
	ProfileUpdate float64
}

// DefaultThresholds returns the production thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Booking:       DefaultBookingThreshold,
		ProfileUpdate: DefaultProfileUpdateThreshold,
	}
}

// For returns the threshold configured for flow.
func (t Thresholds) For(flow Flow) (float64, error) {
	switch flow {
	case FlowBooking:
		return t.Booking, nil
	case FlowProfileUpdate:
		return t.ProfileUpdate, nil
	default:
		return 0, fmt.Errorf("biometric: unknown flow %q", flow)
	}
}

// Verifier applies the configured threshold for a flow.
type Verifier struct {
	thresholds Thresholds
}

// NewVerifier creates a verifier. Zero thresholds fall back to the defaults.
func NewVerifier(t Thresholds) *Verifier {
	def := DefaultThresholds()
	if t.Booking <= 0 {
		t.Booking = def.Booking
	}
	if t.ProfileUpdate <= 0 {
		t.ProfileUpdate = def.ProfileUpdate
	}
	return &Verifier{thresholds: t}
}

// Thresholds returns the effective thresholds.
func (v *Verifier) Thresholds() Thresholds {
	return v.thresholds
}

// Verify decodes the stored embedding and compares the live captures against it.
func (v *Verifier) Verify(flow Flow, stored []byte, live [][]float64) (Decision, error) {
	threshold, err := v.thresholds.For(flow)
	if err != nil {
		return Decision{}, err
	}
	ref, err := ParseStored(stored)
	if err != nil {
		return Decision{}, err
	}
	captures := make([]Embedding, len(live))
	for i, c := range live {
		captures[i] = Embedding(c)
	}
	return Decide(ref, captures, threshold)
}
