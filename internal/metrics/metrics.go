// Package metrics provides Prometheus metrics for the analysis pipeline
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Fetch metrics
	FetchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policylens_fetch_requests_total",
			Help: "Total number of page fetches by strategy and outcome",
		},
		[]string{"method", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "policylens_fetch_duration_seconds",
			Help:    "Duration of page fetches in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 15, 30, 60},
		},
		[]string{"method"},
	)

	// Cache metrics
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policylens_cache_requests_total",
			Help: "Total number of cache lookups by backend and result",
		},
		[]string{"backend", "result"},
	)

	CacheDegraded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "policylens_cache_degraded",
			Help: "1 when the external cache backend has been replaced by the in-process cache",
		},
	)

	// Provider metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policylens_provider_requests_total",
			Help: "Total number of analysis provider calls by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "policylens_provider_duration_seconds",
			Help:    "Duration of analysis provider calls in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider"},
	)

	// Pipeline metrics
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policylens_pipeline_runs_total",
			Help: "Total number of analyze pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policylens_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "code"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "policylens_pipeline_duration_seconds",
			Help:    "Duration of analyze pipeline runs in seconds",
			Buckets: []float64{.01, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

// Handler exposes the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTP records one served HTTP request
func RecordHTTP(method, route string, code int) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

// RecordFetch records one fetch attempt
func RecordFetch(method string, err error, duration time.Duration) {
	FetchRequests.WithLabelValues(method, status(err)).Inc()
	FetchDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordProvider records one provider call
func RecordProvider(provider string, err error, duration time.Duration) {
	ProviderRequests.WithLabelValues(provider, status(err)).Inc()
	ProviderDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordPipeline records one pipeline run. outcome is cached, fresh or the failing error kind.
func RecordPipeline(outcome string, duration time.Duration) {
	PipelineRuns.WithLabelValues(outcome).Inc()
	PipelineDuration.Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
