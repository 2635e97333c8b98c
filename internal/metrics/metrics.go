package metrics

import "github.com/prometheus/client_golang/prometheus"

// Reminder outcomes recorded under the result label.
const (
	ResultSent    = "sent"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "code", "method"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method"},
	)

	RemindersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_reminders_total",
			Help: "Maintenance reminders processed, by outcome",
		},
		[]string{"result"},
	)

	ReminderRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "maintenance_reminder_runs_total",
			Help: "Number of reminder job runs",
		},
	)

	ReminderRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maintenance_reminder_run_duration_seconds",
			Help:    "Time spent in one reminder job run",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(RemindersTotal)
	prometheus.MustRegister(ReminderRunsTotal)
	prometheus.MustRegister(ReminderRunDuration)
}
