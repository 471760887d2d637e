// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the recommendation engine:
// - scoring operation latency and throughput
// - pairwise similarity computations
// - cache efficiency
// - precompute batch progress
// - similarity store circuit breaker state
// - API endpoint latency

var (
	// Scoring Metrics
	ScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deepcue_scoring_duration_seconds",
			Help:    "Duration of recommendation scoring operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "similar", "hybrid", "deepcut", "rerank"
	)

	ScoringErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepcue_scoring_errors_total",
			Help: "Total number of scoring operation errors",
		},
		[]string{"operation", "error_type"},
	)

	SimilarityComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepcue_similarity_computations_total",
			Help: "Total number of pairwise similarity computations",
		},
		[]string{"source"}, // "precomputed", "on_the_fly"
	)

	TracksSkippedNoFeatures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deepcue_tracks_skipped_no_features_total",
			Help: "Total number of tracks skipped for missing feature data",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepcue_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"namespace"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepcue_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"namespace"},
	)

	// Precompute Metrics
	PrecomputePairsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deepcue_precompute_pairs_stored_total",
			Help: "Total number of similarity pairs written by precompute batches",
		},
	)

	PrecomputeBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deepcue_precompute_batch_duration_seconds",
			Help:    "Duration of precompute batches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	PrecomputeLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deepcue_precompute_last_success_timestamp",
			Help: "Unix timestamp of the last successful precompute batch",
		},
	)

	// Similarity Store Metrics
	StoreBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deepcue_similarity_store_breaker_state",
			Help: "Similarity store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepcue_similarity_store_operations_total",
			Help: "Total number of similarity store operations",
		},
		[]string{"operation", "result"}, // operation: "get", "put", "scan"; result: "ok", "error"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepcue_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deepcue_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deepcue_api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// RecordScoring records one scoring operation.
func RecordScoring(operation string, duration time.Duration, err error) {
	ScoringDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		ScoringErrors.WithLabelValues(operation, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss for a namespace.
func RecordCacheLookup(namespace string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(namespace).Inc()
	} else {
		CacheMisses.WithLabelValues(namespace).Inc()
	}
}

// RecordPrecomputeBatch records a completed precompute batch.
func RecordPrecomputeBatch(duration time.Duration, pairs int, err error) {
	PrecomputeBatchDuration.Observe(duration.Seconds())
	PrecomputePairsStored.Add(float64(pairs))
	if err == nil {
		PrecomputeLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordStoreOperation records a similarity store operation result.
func RecordStoreOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StoreOperations.WithLabelValues(operation, result).Inc()
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
