// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

// Package metrics provides Prometheus instrumentation for Shelfrank.
//
// Covered surfaces:
//   - Recommendation query latency and outcomes (including fallback rate)
//   - Offline training duration and artifact sizes
//   - Ingestion row counts and skipped malformed rows
//   - HTTP endpoint latency and throughput
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Query metrics

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfrank_query_duration_seconds",
			Help:    "Duration of recommendation queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"}, // "similar", "personalized", "popular", "items"
	)

	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_queries_total",
			Help: "Total recommendation queries by outcome",
		},
		[]string{"query", "outcome"}, // outcome: "ok", "fallback", "not_found"
	)

	// Training metrics

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfrank_training_duration_seconds",
			Help:    "Duration of offline model training in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"model"}, // "neighbors", "svd", "popularity"
	)

	ModelVersion = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shelfrank_model_version",
			Help: "Version of the most recently persisted model artifact",
		},
		[]string{"model"},
	)

	ModelSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shelfrank_model_size_bytes",
			Help: "Compressed size of the most recently persisted model artifact",
		},
		[]string{"model"},
	)

	// Ingestion metrics

	IngestRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_ingest_rows_total",
			Help: "Total rows read during batch ingestion",
		},
		[]string{"source"}, // "ratings", "catalog"
	)

	IngestSkippedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_ingest_skipped_rows_total",
			Help: "Malformed rows skipped during batch ingestion",
		},
		[]string{"source"},
	)

	// HTTP metrics

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfrank_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfrank_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// RecordQuery records a completed recommendation query.
func RecordQuery(query, outcome string, duration time.Duration) {
	QueryDuration.WithLabelValues(query).Observe(duration.Seconds())
	QueriesTotal.WithLabelValues(query, outcome).Inc()
}

// RecordTraining records one offline model build.
func RecordTraining(model string, duration time.Duration, version int, sizeBytes int64) {
	TrainingDuration.WithLabelValues(model).Observe(duration.Seconds())
	ModelVersion.WithLabelValues(model).Set(float64(version))
	ModelSizeBytes.WithLabelValues(model).Set(float64(sizeBytes))
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
