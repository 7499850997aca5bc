package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	Uploads        *prometheus.CounterVec
	RenderDuration prometheus.Histogram
	RowsLoaded     prometheus.Histogram
	ActiveSessions prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_uploads_total",
			Help: "CSV uploads by result.",
		}, []string{"result"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_render_duration_seconds",
			Help:    "Time spent running the dashboard pipeline.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		RowsLoaded: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_rows_loaded",
			Help:    "Rows per successfully loaded CSV.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 9),
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_active_sessions",
			Help: "Sessions currently held in memory.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.Uploads,
		m.RenderDuration,
		m.RowsLoaded,
		m.ActiveSessions,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests that gather metric values directly.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
