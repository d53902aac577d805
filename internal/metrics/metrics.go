// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the traffic-source analytics pipeline:
// - API endpoint latency and throughput
// - Export parse performance and failure classes
// - Parsed-snapshot cache efficiency and occupancy
// - Byte-source fetch outcomes and circuit breaker state

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Export Parse Metrics
	ParseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "export_parse_duration_seconds",
			Help:    "Duration of CSV export parsing in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	ParseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_parse_failures_total",
			Help: "Total number of export parse failures",
		},
		[]string{"reason"}, // "mapping_required", "no_data"
	)

	// Parsed-Snapshot Cache Metrics
	SnapshotCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_cache_hits_total",
			Help: "Total number of parsed-snapshot cache hits",
		},
	)

	SnapshotCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_cache_misses_total",
			Help: "Total number of parsed-snapshot cache misses",
		},
	)

	SnapshotCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_cache_evictions_total",
			Help: "Total number of parsed-snapshot cache evictions",
		},
	)

	SnapshotCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_cache_entries",
			Help: "Current number of cached parsed snapshots",
		},
	)

	SnapshotLoadsCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_loads_coalesced_total",
			Help: "Concurrent loads of the same storage path served by one fetch",
		},
	)

	// Byte Source Metrics
	BlobFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blob_fetches_total",
			Help: "Total number of byte-source fetches by outcome",
		},
		[]string{"result"}, // "ok", "not_found", "http_error", "transport_error", "read_error"
	)

	BlobFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blob_fetch_duration_seconds",
			Help:    "Duration of byte-source fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	BlobBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blob_breaker_state",
			Help: "Byte-source circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
	)
)

// RecordAPIRequest records latency and outcome for one HTTP request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordParse records one export parse attempt. reason is empty on success.
func RecordParse(duration time.Duration, reason string) {
	ParseDuration.Observe(duration.Seconds())
	if reason != "" {
		ParseFailures.WithLabelValues(reason).Inc()
	}
}
