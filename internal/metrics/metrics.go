package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clinic_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// SplitsTotal counts processed splits by outcome: recorded status, replayed, or error class
	SplitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_splits_total",
			Help: "Payment splits processed, by result",
		},
		[]string{"result"},
	)

	SplitAmountCents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_split_amount_cents_total",
			Help: "Cents recorded in the ledger, by beneficiary",
		},
		[]string{"beneficiary"},
	)

	GatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clinic_gateway_duration_seconds",
			Help:    "Gateway transfer execution latency by resulting status",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"status"},
	)

	ReconciledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_reconciled_total",
			Help: "Pending ledger rows retried by reconciliation, by resulting status",
		},
		[]string{"status"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinic_rate_limited_total",
			Help: "Requests rejected by the per-clinic rate limiter",
		},
	)
)
