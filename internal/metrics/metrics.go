package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baroni_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "baroni_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baroni_ledger_transactions_total",
			Help: "Ledger transactions by type and resulting status",
		},
		[]string{"type", "status"},
	)

	AppointmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baroni_appointments_total",
			Help: "Appointment bookings by outcome",
		},
		[]string{"status"},
	)

	DedicationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baroni_dedications_total",
			Help: "Dedication requests by outcome",
		},
		[]string{"status"},
	)

	LiveShowJoinsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "baroni_live_show_joins_total",
			Help: "Total number of live show attendances created",
		},
	)

	FanOutFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "baroni_fanout_failures_total",
			Help: "Per-item failures inside live-show fan-out operations",
		},
		[]string{"operation"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "baroni_notification_queue_length",
			Help: "Current length of the push notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordTransaction(transactionType, status string) {
	TransactionsTotal.WithLabelValues(transactionType, status).Inc()
}

func RecordAppointment(status string) {
	AppointmentsTotal.WithLabelValues(status).Inc()
}

func RecordDedication(status string) {
	DedicationsTotal.WithLabelValues(status).Inc()
}

func RecordLiveShowJoin() {
	LiveShowJoinsTotal.Inc()
}

func RecordFanOutFailure(operation string) {
	FanOutFailuresTotal.WithLabelValues(operation).Inc()
}
