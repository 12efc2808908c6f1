package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry holds all Prometheus metrics for the price backend.
type MetricsRegistry struct {
	registry *prometheus.Registry

	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Business Metrics
	CascadeLookupsTotal *prometheus.CounterVec
	PredictionsTotal    *prometheus.CounterVec
}

// NewMetricsRegistry creates the metrics on a private registry so that several
// routers can coexist in one process.
func NewMetricsRegistry() *MetricsRegistry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsRegistry{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightprice_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flightprice_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "flightprice_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		CascadeLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightprice_cascade_lookups_total",
				Help: "Dropdown cascade lookups by stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		PredictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightprice_predictions_total",
				Help: "Price predictions by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
