package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtslot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courtslot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	OrdersCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtslot_orders_created_total",
			Help: "Total number of payment orders created",
		},
		[]string{"sport"},
	)

	SlotConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtslot_slot_conflicts_total",
			Help: "Total number of reservation requests rejected due to slot conflicts",
		},
	)

	PaymentsConfirmedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtslot_payments_confirmed_total",
			Help: "Total number of payment confirmations that changed reservation state",
		},
		[]string{"source"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtslot_webhook_events_total",
			Help: "Total number of webhook events by kind and outcome",
		},
		[]string{"event", "outcome"},
	)

	SignatureFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtslot_signature_failures_total",
			Help: "Total number of rejected payment signatures",
		},
		[]string{"path"},
	)

	ReservationsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtslot_reservations_expired_total",
			Help: "Total number of pending reservations expired by the TTL sweep",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtslot_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordOrderCreated(sport string) {
	OrdersCreatedTotal.WithLabelValues(sport).Inc()
}

func RecordSlotConflict() {
	SlotConflictsTotal.Inc()
}

func RecordPaymentConfirmed(source string) {
	PaymentsConfirmedTotal.WithLabelValues(source).Inc()
}

func RecordWebhookEvent(event, outcome string) {
	WebhookEventsTotal.WithLabelValues(event, outcome).Inc()
}

func RecordSignatureFailure(path string) {
	SignatureFailuresTotal.WithLabelValues(path).Inc()
}

func RecordExpired(count int64) {
	ReservationsExpiredTotal.Add(float64(count))
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
