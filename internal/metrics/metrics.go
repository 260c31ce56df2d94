package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AuthLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"result"},
	)

	// RecoveryStepsTotal counts recovery calls by step (initiate|verify|reset) and outcome.
	RecoveryStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recovery_steps_total",
			Help: "Credential recovery calls by step and result.",
		},
		[]string{"step", "result"},
	)

	RecoverySessionsPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recovery_sessions_purged_total",
			Help: "Expired recovery sessions removed by the cleaner.",
		},
	)
)

func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		AuthLoginsTotal,
		RecoveryStepsTotal,
		RecoverySessionsPurgedTotal,
	)
}

func ObserveRecovery(step, result string) {
	RecoveryStepsTotal.WithLabelValues(step, result).Inc()
}
