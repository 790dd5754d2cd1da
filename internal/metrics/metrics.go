// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CoT Stream Metrics
	StreamState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "takbridge_stream_state",
			Help: "CoT stream state (0=disconnected, 1=connecting, 2=handshaking, 3=open, 4=closed, 5=error)",
		},
		[]string{"connection"},
	)

	StreamEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "takbridge_stream_events_total",
			Help: "Total number of framed CoT events by class",
		},
		[]string{"connection", "class"}, // class: "ack", "version", "event"
	)

	StreamBytesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "takbridge_stream_bytes_read_total",
			Help: "Total bytes read from the CoT stream socket",
		},
		[]string{"connection"},
	)

	StreamWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "takbridge_stream_writes_total",
			Help: "Total number of CoT writes to the stream socket",
		},
		[]string{"connection", "result"}, // result: "success", "failure"
	)

	StreamNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "takbridge_stream_notifications_total",
			Help: "Total number of error, timeout and end notifications raised by the stream",
		},
		[]string{"connection", "kind"},
	)

	StreamReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "takbridge_stream_reconnects_total",
			Help: "Total number of stream reconnect attempts",
		},
		[]string{"connection"},
	)

	// Management API Metrics
	TAKRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "takbridge_tak_requests_total",
			Help: "Total number of TAK Server management API requests",
		},
		[]string{"method", "status"},
	)

	TAKRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "takbridge_tak_request_duration_seconds",
			Help:    "TAK Server management API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Reconciler Metrics
	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "takbridge_reconcile_runs_total",
			Help: "Total number of data-mission reconcile runs by outcome",
		},
		[]string{"outcome"}, // "created", "synced", "deleted", "absent", "error"
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "takbridge_reconcile_duration_seconds",
			Help:    "Duration of a single data-mission reconcile run",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ReconcileActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "takbridge_reconcile_actions_total",
			Help: "Remote mutations performed by the reconciler",
		},
		[]string{"action"}, // "activate_groups", "create_mission", "delete_mission", "subscribe", "create_layer"
	)

	// Event Bus Metrics
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "takbridge_events_published_total",
			Help: "Total number of CoT events handed to the event bus",
		},
		[]string{"result"},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "takbridge_store_operation_duration_seconds",
			Help:    "Duration of Badger store operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"operation"},
	)

	// Health/Status HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "takbridge_http_requests_total",
			Help: "Total number of requests to the status HTTP server",
		},
		[]string{"method", "route", "status"},
	)
)

// SetStreamState records the numeric stream state for a connection.
func SetStreamState(connection string, state int) {
	StreamState.WithLabelValues(connection).Set(float64(state))
}

// RecordStreamEvent counts one framed CoT event.
func RecordStreamEvent(connection, class string) {
	StreamEventsTotal.WithLabelValues(connection, class).Inc()
}

// RecordStreamRead adds n bytes to the read counter.
func RecordStreamRead(connection string, n int) {
	if n > 0 {
		StreamBytesRead.WithLabelValues(connection).Add(float64(n))
	}
}

// RecordStreamWrite counts a socket write.
func RecordStreamWrite(connection string, err error) {
	StreamWritesTotal.WithLabelValues(connection, resultLabel(err)).Inc()
}

// RecordStreamNotification counts an error/timeout/end notification.
func RecordStreamNotification(connection, kind string) {
	StreamNotificationsTotal.WithLabelValues(connection, kind).Inc()
}

// RecordStreamReconnect counts a reconnect attempt.
func RecordStreamReconnect(connection string) {
	StreamReconnectsTotal.WithLabelValues(connection).Inc()
}

// RecordTAKRequest records a management API call. status is 0 when no
// response was received.
func RecordTAKRequest(method string, status int, duration time.Duration) {
	label := "none"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	TAKRequestsTotal.WithLabelValues(method, label).Inc()
	TAKRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordReconcile records the outcome and duration of one reconcile run.
func RecordReconcile(outcome string, duration time.Duration) {
	ReconcileRunsTotal.WithLabelValues(outcome).Inc()
	ReconcileDuration.Observe(duration.Seconds())
}

// RecordReconcileAction counts a remote mutation made by the reconciler.
func RecordReconcileAction(action string) {
	ReconcileActionsTotal.WithLabelValues(action).Inc()
}

// RecordEventPublish counts an event bus publish.
func RecordEventPublish(err error) {
	EventsPublishedTotal.WithLabelValues(resultLabel(err)).Inc()
}

// RecordStoreOperation observes a Badger operation duration.
func RecordStoreOperation(operation string, duration time.Duration) {
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPRequest counts a request to the status server.
func RecordHTTPRequest(method, route string, status int) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
