// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

/*
Package api serves TAKBridge's health and status endpoints with chi.

	GET  /healthz        liveness
	GET  /readyz         readiness: every stream is open
	GET  /metrics        Prometheus exposition
	GET  /api/status     streams, breaker state, track stats and latest reconcile results
	GET  /api/tracks     live CoT tracks as a GeoJSON FeatureCollection
	POST /api/sync/{id}  reconcile one Data Connection now

Everything except /metrics goes through the httprate limiter configured in
server.rate_limit_requests and server.rate_limit_window.
*/
package api
