// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route template and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogrank_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route template
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogrank_http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// RecommendationsReturned observes the size of each recommendation response
	RecommendationsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalogrank_recommendations_returned",
			Help:    "Number of products returned per recommendation request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	// SimilarityLookups counts similarity neighbour lookups by outcome
	SimilarityLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogrank_similarity_lookups_total",
			Help: "Similarity backend lookups by result (cache_hit, backend, error)",
		},
		[]string{"result"},
	)

	// CatalogRows is the row count of the catalog snapshot being served
	CatalogRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalogrank_catalog_rows",
			Help: "Number of rows in the loaded catalog snapshot",
		},
	)
)
