package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "appointments_created_total",
			Help:      "Count of appointments inserted, by initial status.",
		},
		[]string{"status"},
	)

	bookingConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "slot_conflicts_total",
			Help:      "Count of booking attempts rejected because the slot was taken.",
		},
	)

	webhookResult = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "payment_webhooks_total",
			Help:      "Count of payment callbacks by gateway and outcome.",
		},
		[]string{"gateway", "outcome"},
	)

	gatewayErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "payment_gateway_errors_total",
			Help:      "Count of failed payment order creations by gateway.",
		},
		[]string{"gateway"},
	)

	holdsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "holds_expired_total",
			Help:      "Count of payment holds released by the reaper.",
		},
	)

	auditDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "audit_events_dropped_total",
			Help:      "Count of audit events dropped because the queue was full.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingCreated,
			bookingConflict,
			webhookResult,
			gatewayErrors,
			holdsExpired,
			auditDropped,
		)
	})
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncBookingConflict() {
	bookingConflict.Inc()
}

func IncWebhook(gateway, outcome string) {
	webhookResult.WithLabelValues(gateway, outcome).Inc()
}

func IncGatewayError(gateway string) {
	gatewayErrors.WithLabelValues(gateway).Inc()
}

func AddHoldsExpired(n int) {
	holdsExpired.Add(float64(n))
}

func IncAuditDropped() {
	auditDropped.Inc()
}
