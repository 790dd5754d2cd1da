// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

/*
Package middleware holds the chi middleware of the status server.

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)

RequestID tags each request with an X-Request-ID (kept from upstream when
present) and a fresh logging correlation ID. Metrics counts requests by
method, chi route pattern and status, and logs each at debug level.
*/
package middleware
