// Package metrics holds the Prometheus collectors for resolution, verification and alerting
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op
type Metrics struct {
	reg *prometheus.Registry

	PluginLatency     *prometheus.HistogramVec
	PluginResults     *prometheus.CounterVec
	Resolutions       *prometheus.CounterVec
	VerificationScore prometheus.Histogram
	AlertDeliveries   *prometheus.CounterVec
	RevalidationRuns  *prometheus.CounterVec
	HTTPLatency       *prometheus.HistogramVec
}

// New registers every collector on a fresh registry along with the Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		PluginLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payalias_plugin_duration_seconds",
			Help:    "Duration of resolver plugin calls",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"plugin"}),
		PluginResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "payalias_plugin_results_total",
			Help: "Resolver plugin outcomes",
		}, []string{"plugin", "result"}), // result: found, empty, error, timeout, panic
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "payalias_resolutions_total",
			Help: "Resolution outcomes",
		}, []string{"result"}), // result: hit, resolved, not_found, unresolvable
		VerificationScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "payalias_verification_trust_score",
			Help:    "Trust scores produced by verification passes",
			Buckets: []float64{50, 60, 70, 75, 80, 85, 90, 95, 100},
		}),
		AlertDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "payalias_alert_deliveries_total",
			Help: "Alert deliveries by channel and status",
		}, []string{"channel", "status"}),
		RevalidationRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "payalias_revalidation_records_total",
			Help: "Records processed by the revalidation scheduler",
		}, []string{"result"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payalias_http_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "code"}),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// ObservePlugin records one plugin call
func (m *Metrics) ObservePlugin(plugin, result string, d time.Duration) {
	if m != nil {
		m.PluginLatency.WithLabelValues(plugin).Observe(d.Seconds())
		m.PluginResults.WithLabelValues(plugin, result).Inc()
	}
}

// IncResolution records a resolution outcome
func (m *Metrics) IncResolution(result string) {
	if m != nil {
		m.Resolutions.WithLabelValues(result).Inc()
	}
}

// ObserveScore records a verification trust score
func (m *Metrics) ObserveScore(score int) {
	if m != nil {
		m.VerificationScore.Observe(float64(score))
	}
}

// IncAlert records an alert delivery attempt
func (m *Metrics) IncAlert(channel, status string) {
	if m != nil {
		m.AlertDeliveries.WithLabelValues(channel, status).Inc()
	}
}

// IncRevalidation records one processed record
func (m *Metrics) IncRevalidation(result string) {
	if m != nil {
		m.RevalidationRuns.WithLabelValues(result).Inc()
	}
}

// Instrument is HTTP middleware observing request latency by method and status code
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return promhttp.InstrumentHandlerDuration(m.HTTPLatency, next)
}
