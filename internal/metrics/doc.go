// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

// Package metrics defines the Prometheus collectors exported on /metrics.
//
// Collectors are registered with the default registry through promauto at
// package init. Callers use the Record* helpers rather than touching the
// vectors directly so label sets stay consistent:
//
//	metrics.RecordTAKRequest(http.MethodGet, resp.Status, time.Since(start))
//	metrics.RecordReconcile("synced", time.Since(start))
//
// Collector groups:
//   - takbridge_stream_*: CoT socket state, framed events, bytes, writes, notifications
//   - takbridge_tak_*: management API requests and latency
//   - circuit_breaker_*: gobreaker state around the management API
//   - takbridge_reconcile_*: data-mission reconcile runs and remote mutations
//   - takbridge_events_published_total, takbridge_store_*, takbridge_http_requests_total
package metrics
