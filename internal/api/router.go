// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/takbridge/internal/middleware"
)

// RouterConfig controls rate limiting. Zero requests disables it.
type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

func (c RouterConfig) rateLimit() func(http.Handler) http.Handler {
	if c.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := c.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(c.RateLimitRequests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", nil)
		}),
	)
}

// NewRouter builds the HTTP handler.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(cfg.rateLimit())
		r.Get("/healthz", h.Healthz)
		r.Get("/readyz", h.Readyz)
		r.Get("/api/status", h.Status)
		r.Get("/api/tracks", h.Tracks)
		r.Post("/api/sync/{id}", h.SyncData)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})
	return r
}
