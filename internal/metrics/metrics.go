// Package metrics exposes Prometheus collectors for the analyzer service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	stageRunsTotal            *prometheus.CounterVec
	stageDurationSeconds      *prometheus.HistogramVec
	pagesAnalyzedTotal        *prometheus.CounterVec
	externalCallsTotal        *prometheus.CounterVec
	httpRequestsTotal         *prometheus.CounterVec
	httpRequestDurationSecond *prometheus.HistogramVec
	activeWorkers             prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		stageRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_stage_runs_total",
				Help: "Total number of pipeline stage runs, labeled by stage and result.",
			},
			[]string{"stage", "result"},
		)

		stageDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analyzer_stage_duration_seconds",
				Help:    "Histogram of stage run durations, labeled by stage.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"stage"},
		)

		pagesAnalyzedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_pages_analyzed_total",
				Help: "Total number of pages analyzed, labeled by site and kind.",
			},
			[]string{"site", "kind"},
		)

		externalCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_external_calls_total",
				Help: "Total number of external API calls, labeled by service and outcome.",
			},
			[]string{"service", "outcome"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSecond = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "analyzer_active_workers",
				Help: "Number of workers currently running a stage.",
			},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveStageRun records one stage run with its duration.
func ObserveStageRun(stage, result string, duration time.Duration) {
	stageRunsTotal.WithLabelValues(stage, result).Inc()
	stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObservePageAnalyzed increments the per-site page counter.
func ObservePageAnalyzed(site, kind string) {
	pagesAnalyzedTotal.WithLabelValues(SanitizeSite(site), kind).Inc()
}

// ObserveExternalCall increments the external API counter for the outcome.
func ObserveExternalCall(service, outcome string) {
	externalCallsTotal.WithLabelValues(service, outcome).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSecond.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	activeWorkers.Dec()
}
