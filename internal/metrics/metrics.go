package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry               *prometheus.Registry
	httpRequests           *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	renderCycles           *prometheus.CounterVec
	renderedElements       *prometheus.GaugeVec
	filterDuration         prometheus.Histogram
	boundaryLoadFailures   prometheus.Counter
	snapshotRefreshes      *prometheus.CounterVec
	snapshotRefreshSeconds prometheus.Histogram
	activeSessions         prometheus.Gauge
}

// New creates a fresh Metrics registry with HTTP, render and snapshot metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by dashboard-go",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dashboard",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by dashboard-go",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	renderCycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "render_cycles_total",
		Help:      "Teardown/construct cycles of the active map layer, by view mode",
	}, []string{"mode"})

	renderedElements := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dashboard",
		Name:      "rendered_elements",
		Help:      "Visual elements in the most recently constructed layer, by view mode",
	}, []string{"mode"})

	filterDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dashboard",
		Name:      "filter_duration_seconds",
		Help:      "Time spent evaluating the filter predicate over the record store",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	boundaryLoadFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "boundary_load_failures_total",
		Help:      "Boundary files that could not be fetched or parsed",
	})

	snapshotRefreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Name:      "snapshot_refreshes_total",
		Help:      "Dataset snapshot refresh attempts, by result",
	}, []string{"result"})

	snapshotRefreshSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dashboard",
		Name:      "snapshot_refresh_duration_seconds",
		Help:      "Duration of dataset snapshot refreshes from start to finish",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dashboard",
		Name:      "active_sessions",
		Help:      "Dashboard sessions currently held in memory",
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		renderCycles,
		renderedElements,
		filterDuration,
		boundaryLoadFailures,
		snapshotRefreshes,
		snapshotRefreshSeconds,
		activeSessions,
	)

	return &Metrics{
		registry:               registry,
		httpRequests:           httpRequests,
		httpRequestDuration:    httpRequestDuration,
		renderCycles:           renderCycles,
		renderedElements:       renderedElements,
		filterDuration:         filterDuration,
		boundaryLoadFailures:   boundaryLoadFailures,
		snapshotRefreshes:      snapshotRefreshes,
		snapshotRefreshSeconds: snapshotRefreshSeconds,
		activeSessions:         activeSessions,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveRender records one layer construction.
func (m *Metrics) ObserveRender(mode string, elements int) {
	if m == nil {
		return
	}
	m.renderCycles.WithLabelValues(mode).Inc()
	m.renderedElements.WithLabelValues(mode).Set(float64(elements))
}

func (m *Metrics) ObserveFilter(duration time.Duration) {
	if m == nil {
		return
	}
	m.filterDuration.Observe(duration.Seconds())
}

func (m *Metrics) IncBoundaryLoadFailure() {
	if m == nil {
		return
	}
	m.boundaryLoadFailures.Inc()
}

// ObserveSnapshotRefresh records a refresh attempt and its duration.
func (m *Metrics) ObserveSnapshotRefresh(ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.snapshotRefreshes.WithLabelValues(result).Inc()
	m.snapshotRefreshSeconds.Observe(duration.Seconds())
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
