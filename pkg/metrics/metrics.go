// Package metrics provides Prometheus metrics for the fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogQueriesTotal tracks catalog queries issued while building a reference index
	CatalogQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "catalog",
			Name:      "queries_total",
			Help:      "Total number of catalog queries by entity type",
		},
		[]string{"entity_type"},
	)

	// CatalogQueryFailures tracks catalog sub-queries that failed and degraded to an empty index
	CatalogQueryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Name:      "catalog_query_failures_total",
			Help:      "Total number of failed catalog sub-queries by entity type",
		},
		[]string{"entity_type"},
	)

	// CatalogQueryDuration tracks catalog database round trips in seconds
	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "catalog",
			Name:      "query_duration_seconds",
			Help:      "Duration of catalog database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"query"},
	)

	// IndexBuildDuration tracks reference index build duration in seconds
	IndexBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "index",
			Name:      "build_duration_seconds",
			Help:      "Duration of reference index builds in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// CardsResolvedTotal tracks resolved cards by outcome
	CardsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "resolution",
			Name:      "cards_total",
			Help:      "Total number of cards resolved by outcome",
		},
		[]string{"outcome"},
	)

	// JobsTotal tracks resolution jobs by terminal status
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "jobs",
			Name:      "total",
			Help:      "Total number of resolution jobs by status",
		},
		[]string{"status"},
	)

	// JobsInFlight tracks jobs currently running
	JobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fern",
			Subsystem: "jobs",
			Name:      "in_flight",
			Help:      "Number of resolution jobs currently running",
		},
	)

	// SubmissionsConsumedTotal tracks crowdsourced submissions read from kafka
	SubmissionsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "submissions_consumed_total",
			Help:      "Total number of card submissions consumed by status",
		},
		[]string{"status"},
	)
)

// Card resolution outcomes
const (
	OutcomeFullyResolved = "fully_resolved"
	OutcomeNeedsReview   = "needs_review"
	OutcomePartial       = "partial"
)
