package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"method", "route"},
	)

	LifecycleTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_transitions_total",
			Help: "Total number of application/claim lifecycle transitions",
		},
		[]string{"operation", "outcome"},
	)

	PaymentsFinalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_finalized_total",
			Help: "Total number of payment finalizations",
		},
		[]string{"outcome"},
	)

	ReconcilerSweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconciler_sweeps_total",
			Help: "Total number of payment reconciler sweeps",
		},
		[]string{"outcome"},
	)
)
