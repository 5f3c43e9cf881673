package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var exporterFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "usercycle_telemetry_export_failures_total",
		Help: "Number of trace exporter initialization failures by exporter protocol.",
	},
	[]string{"service_name", "exporter"},
)

func recordExporterFailure(serviceName, exporter string) {
	if serviceName == "" {
		serviceName = "unknown"
	}
	exporterFailures.WithLabelValues(serviceName, exporter).Inc()
}

// ExporterFailures exposes the failure counter for tests and dashboards.
func ExporterFailures() *prometheus.CounterVec {
	return exporterFailures
}
