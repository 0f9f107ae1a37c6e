// Package metrics declares the Prometheus collectors shared by the service.
// Collectors are registered with the default registry on import so the
// /metrics endpoint exposes them without further wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crate"

var (
	// HTTPRequests counts handled requests by route pattern, method and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests handled, partitioned by route, method and status code.",
	}, []string{"route", "method", "status"})

	// PipelineDuration observes how long a recommendation took per mode.
	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_duration_seconds",
		Help:      "Time spent producing recommendations, by pipeline mode.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"mode"})

	// Fallbacks counts every degradation step taken by the orchestrator.
	Fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallbacks_total",
		Help:      "Fallbacks taken, by stage (analysis, legacy, legacy_failed).",
	}, []string{"stage"})

	// CatalogSearches counts catalog calls by outcome (ok, empty, error).
	CatalogSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_searches_total",
		Help:      "Catalog search calls, by outcome.",
	}, []string{"outcome"})

	// CompletionRequests counts completion API calls by outcome.
	CompletionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completion_requests_total",
		Help:      "Completion API calls, by outcome.",
	}, []string{"outcome"})

	// CacheLookups counts result cache reads (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Recommendation cache lookups, by result.",
	}, []string{"result"})
)
