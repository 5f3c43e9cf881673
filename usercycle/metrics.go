package usercycle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts API calls by method, route and outcome. status is
	// the HTTP status code, or "transport_error"/"read_error".
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usercycle_client_requests_total",
			Help: "Total number of USERCycle API requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration tracks round-trip latency per route.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "usercycle_client_request_duration_seconds",
			Help:    "USERCycle API round-trip latency in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"method", "route"},
	)

	// APIErrorsTotal counts non-2xx responses by error kind.
	APIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usercycle_client_api_errors_total",
			Help: "Total number of non-2xx USERCycle API responses by error kind",
		},
		[]string{"kind"},
	)
)

func recordRequest(method, route, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
