// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

// Package metrics provides Prometheus instrumentation for the gateway:
// request latency and throughput, authorization decisions, and store query
// performance.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datagate_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datagate_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datagate_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Authorization metrics
	AuthzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datagate_authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"action", "table", "decision"}, // decision: "allow", "deny", "empty"
	)

	// Store metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datagate_store_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action", "table"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datagate_store_query_errors_total",
			Help: "Total number of store query errors",
		},
		[]string{"action", "table"},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAuthzDecision records an authorization outcome for one descriptor.
func RecordAuthzDecision(action, table, decision string) {
	AuthzDecisionsTotal.WithLabelValues(action, table, decision).Inc()
}

// RecordStoreQuery records a store query duration, and the error counter
// when it failed.
func RecordStoreQuery(action, table string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(action, table).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(action, table).Inc()
	}
}

// TrackActiveRequest adjusts the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
