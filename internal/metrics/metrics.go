// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts calls to external providers by outcome
	// ("ok", "not_found", "error", "rejected").
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_upstream_requests_total",
			Help: "Calls to external providers by provider, operation and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curator_upstream_request_duration_seconds",
			Help:    "Latency of calls to external providers",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "curator_circuit_breaker_state",
			Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	// PipelineOutcomes counts finished recommendation requests
	// by content kind and source ("model", "fallback", "empty").
	PipelineOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_pipeline_outcomes_total",
			Help: "Finished recommendation pipelines by kind and source",
		},
		[]string{"kind", "source"},
	)

	EnrichmentMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_enrichment_misses_total",
			Help: "Candidates returned without a given enrichment field",
		},
		[]string{"field"},
	)

	ExcludedRecommendations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curator_excluded_recommendations_total",
			Help: "Recommendations dropped by the exclusion set or deduplication",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curator_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"route"},
	)
)

// ObserveUpstream records one provider call.
func ObserveUpstream(provider, operation, outcome string, started time.Time) {
	UpstreamRequests.WithLabelValues(provider, operation, outcome).Inc()
	UpstreamDuration.WithLabelValues(provider, operation).Observe(time.Since(started).Seconds())
}

// ObserveHTTP records one served HTTP request.
func ObserveHTTP(route string, status int, started time.Time) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(time.Since(started).Seconds())
}
