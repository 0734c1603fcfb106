package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics records reservation engine activity.
type InventoryMetrics struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	expired     prometheus.Counter
}

// NewInventoryMetrics registers the reservation engine metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_transitions_total",
		Help: "Reservation transitions applied, by transition and result.",
	}, []string{"transition", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_transition_duration_seconds",
		Help:    "Duration of reservation transitions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"transition"})
	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_expired_reservations_released_total",
		Help: "Reservations released by the expiry sweep.",
	})
	reg.MustRegister(transitions, duration, expired)
	return &InventoryMetrics{
		transitions: transitions,
		duration:    duration,
		expired:     expired,
	}
}

// ObserveTransition records one engine transition with its outcome and duration.
func (m *InventoryMetrics) ObserveTransition(transition string, err error, elapsed time.Duration) {
	if m == nil || m.transitions == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.transitions.WithLabelValues(normalizeLabel(transition), result).Inc()
	m.duration.WithLabelValues(normalizeLabel(transition)).Observe(elapsed.Seconds())
}

// AddExpiredReleased counts reservations released by the expiry sweep.
func (m *InventoryMetrics) AddExpiredReleased(n int) {
	if m == nil || m.expired == nil || n <= 0 {
		return
	}
	m.expired.Add(float64(n))
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
