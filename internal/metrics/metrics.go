package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeRejected      = "rejected"
	OutcomeTooLarge      = "too_large"
	OutcomeStagingFailed = "staging_failed"
	OutcomeForwardFailed = "forward_failed"
)

// Metrics groups the collectors the server exports. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	uploads       *prometheus.CounterVec
	stageCleanups *prometheus.CounterVec
	remoteDeletes *prometheus.CounterVec
	rateLimited   prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketplace_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketplace_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketplace_uploads_total",
				Help: "Image uploads by outcome",
			},
			[]string{"outcome"},
		),
		stageCleanups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketplace_stage_cleanups_total",
				Help: "Staged file removals by result",
			},
			[]string{"result"},
		),
		remoteDeletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketplace_remote_asset_deletes_total",
				Help: "Remote asset deletions by result",
			},
			[]string{"result"},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "marketplace_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
	}
	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.uploads,
		m.stageCleanups,
		m.remoteDeletes,
		m.rateLimited,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTPRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) RecordUpload(outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

// RecordStageCleanup counts one cleanup attempt of a staged file.
func (m *Metrics) RecordStageCleanup(ok bool) {
	if m == nil {
		return
	}
	m.stageCleanups.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) RecordRemoteDelete(ok bool) {
	if m == nil {
		return
	}
	m.remoteDeletes.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
