package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AlertsEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vindoc_alerts_evaluated_total",
			Help: "Alerts produced by the rule and lifespan evaluators.",
		},
		[]string{"source", "bucket"},
	)

	AlertsSuppressed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vindoc_alerts_suppressed_total",
			Help: "Alerts dropped because their natural key was already notified.",
		},
	)

	EnrichmentResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vindoc_enrichment_total",
			Help: "Advice enrichment outcomes.",
		},
		[]string{"result"}, // ai, cache, fallback
	)

	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vindoc_emails_total",
			Help: "Digest mail attempts by outcome.",
		},
		[]string{"result"},
	)

	NotificationsLogged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vindoc_notifications_logged_total",
			Help: "Notification log entries written.",
		},
	)

	VoiceCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vindoc_voice_calls_total",
			Help: "Voice gate outcomes.",
		},
		[]string{"outcome", "reason"},
	)

	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vindoc_job_runs_total",
			Help: "Background job runs by job and result.",
		},
		[]string{"job", "result"},
	)

	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vindoc_job_duration_seconds",
			Help:    "Duration of background job runs.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"job"},
	)
)

func init() {
	prometheus.MustRegister(
		AlertsEvaluated,
		AlertsSuppressed,
		EnrichmentResults,
		EmailsSent,
		NotificationsLogged,
		VoiceCalls,
		JobRuns,
		JobDuration,
	)
}
