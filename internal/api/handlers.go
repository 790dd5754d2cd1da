// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/takbridge/internal/cache"
	"github.com/tomtom215/takbridge/internal/cot"
	"github.com/tomtom215/takbridge/internal/logging"
	"github.com/tomtom215/takbridge/internal/store"
	"github.com/tomtom215/takbridge/internal/stream"
	"github.com/tomtom215/takbridge/internal/supervisor/services"
	"github.com/tomtom215/takbridge/internal/takapi"
)

// StreamInfo is the read side of a stream client.
type StreamInfo interface {
	ID() string
	State() stream.State
	Version() string
}

// Scheduler exposes reconcile results and on-demand runs.
type Scheduler interface {
	Results() []services.SyncResult
	SyncOne(ctx context.Context, id int64) (*takapi.Mission, error)
}

// BreakerInfo reports the Management Client breaker state.
type BreakerInfo interface {
	BreakerState() string
}

// TrackSource is the live track table.
type TrackSource interface {
	Features() cache.FeatureCollection
	GetStats() cache.Stats
}

// Handler holds the status dependencies. Any of them may be nil.
type Handler struct {
	streams   []StreamInfo
	scheduler Scheduler
	breaker   BreakerInfo
	tracks    TrackSource
	startTime time.Time
}

// NewHandler returns a Handler over the given components.
func NewHandler(streams []StreamInfo, scheduler Scheduler, breaker BreakerInfo, tracks TrackSource) *Handler {
	return &Handler{
		streams:   streams,
		scheduler: scheduler,
		breaker:   breaker,
		tracks:    tracks,
		startTime: time.Now(),
	}
}

// StreamStatus describes one stream in /api/status.
type StreamStatus struct {
	ID            string `json:"id"`
	State         string `json:"state"`
	ServerVersion string `json:"server_version,omitempty"`
}

// Status is the /api/status payload.
type Status struct {
	Uptime    float64               `json:"uptime_seconds"`
	Streams   []StreamStatus        `json:"streams"`
	Breaker   string                `json:"breaker"`
	Reconcile []services.SyncResult `json:"reconcile"`
	Tracks    *cache.Stats          `json:"tracks,omitempty"`
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, http.StatusOK, map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// Readyz is 200 only when every stream has completed its handshake.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	streams := h.streamStatuses()
	ready := true
	for _, s := range h.streams {
		if s.State() != stream.StateOpen {
			ready = false
		}
	}
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	respondOK(w, r, status, map[string]any{"ready": ready, "streams": streams})
}

// Status reports every component.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st := Status{
		Uptime:    time.Since(h.startTime).Seconds(),
		Streams:   h.streamStatuses(),
		Breaker:   "disabled",
		Reconcile: []services.SyncResult{},
	}
	if h.breaker != nil {
		st.Breaker = h.breaker.BreakerState()
	}
	if h.scheduler != nil {
		st.Reconcile = h.scheduler.Results()
	}
	if h.tracks != nil {
		stats := h.tracks.GetStats()
		st.Tracks = &stats
	}
	respondOK(w, r, http.StatusOK, st)
}

// SyncData reconciles the Data Connection named in the path.
func (h *Handler) SyncData(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, r, http.StatusServiceUnavailable, "SYNC_DISABLED", "Data sync is not enabled", nil)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, "INVALID_ID", "Data connection id must be a positive integer", nil)
		return
	}

	mission, err := h.scheduler.SyncOne(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Data connection not found", nil)
		return
	case err != nil:
		respondError(w, r, http.StatusBadGateway, "SYNC_FAILED", "Data sync failed", err)
		return
	}

	body := map[string]any{"data_id": id, "present": mission != nil}
	if mission != nil {
		body["mission"] = mission.Name
		body["groups"] = mission.Groups
	}
	respondOK(w, r, http.StatusOK, body)
}

// Tracks returns live CoT tracks as a GeoJSON FeatureCollection. The body
// is bare GeoJSON, not the Response envelope, so map clients can load it
// directly.
func (h *Handler) Tracks(w http.ResponseWriter, r *http.Request) {
	fc := cache.FeatureCollection{Type: "FeatureCollection", Features: []cot.Feature{}}
	if h.tracks != nil {
		fc = h.tracks.Features()
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Encode tracks")
	}
}

func (h *Handler) streamStatuses() []StreamStatus {
	out := make([]StreamStatus, 0, len(h.streams))
	for _, s := range h.streams {
		out = append(out, StreamStatus{ID: s.ID(), State: s.State().String(), ServerVersion: s.Version()})
	}
	return out
}
