// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/takbridge/internal/logging"
	"github.com/tomtom215/takbridge/internal/metrics"
)

// Metrics records each request once the handler returns. Unmatched
// requests are labeled with route "unmatched" to bound cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		metrics.RecordHTTPRequest(r.Method, route, rw.status)

		l := logging.CtxWith(r.Context()).
			Str("request_id", GetRequestID(r.Context())).
			Logger()
		l.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", rw.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
