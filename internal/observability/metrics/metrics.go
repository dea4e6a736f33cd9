package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "idseva"

// BookingMetrics exposes counters and histograms for the booking flows.
type BookingMetrics struct {
	recommendations  *prometheus.CounterVec
	faceVerification *prometheus.CounterVec
	faceDistance     *prometheus.HistogramVec
	bookings         *prometheus.CounterVec
	cancellations    prometheus.Counter
	updateRequests   *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "slots",
			Name:      "recommendations_total",
			Help:      "Slot lists ranked for a center and day",
		}, []string{"has_recommendation"}),
		faceVerification: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "biometric",
			Name:      "verifications_total",
			Help:      "Face verification attempts by flow and outcome",
		}, []string{"flow", "result"}),
		faceDistance: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "biometric",
			Name:      "average_distance",
			Help:      "Average embedding distance of decided verifications",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.35, 0.4, 0.45, 0.5, 0.55, 0.6, 0.8, 1},
		}, []string{"flow"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "confirm_total",
			Help:      "Booking confirmation attempts by result",
		}, []string{"result"}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "cancelled_total",
			Help:      "Bookings cancelled by citizens",
		}),
		updateRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "updates",
			Name:      "requests_total",
			Help:      "Profile update submissions by type and result",
		}, []string{"type", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.recommendations, m.faceVerification, m.faceDistance,
		m.bookings, m.cancellations, m.updateRequests)
	return m
}

func (m *BookingMetrics) ObserveRecommendation(hasRecommendation bool) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(boolLabel(hasRecommendation)).Inc()
}

// ObserveVerification records one verification outcome. distance is only
// recorded when decided is true.
func (m *BookingMetrics) ObserveVerification(flow, result string, decided bool, distance float64) {
	if m == nil {
		return
	}
	m.faceVerification.WithLabelValues(flow, result).Inc()
	if decided {
		m.faceDistance.WithLabelValues(flow).Observe(distance)
	}
}

func (m *BookingMetrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveCancellation() {
	if m == nil {
		return
	}
	m.cancellations.Inc()
}

func (m *BookingMetrics) ObserveUpdateRequest(updateType, result string) {
	if m == nil {
		return
	}
	m.updateRequests.WithLabelValues(updateType, result).Inc()
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
