// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/takbridge/internal/cot"
	"github.com/tomtom215/takbridge/internal/logging"
)

// DefaultSweepInterval is how often Serve removes expired entries.
const DefaultSweepInterval = time.Minute

// Entry is the latest event seen for one uid.
type Entry struct {
	Event      *cot.Event
	Connection string
	Updated    time.Time
	ExpiresAt  time.Time
}

// Stats tracks table activity.
type Stats struct {
	Observed    int64     `json:"observed"`
	Expired     int64     `json:"expired"`
	TotalKeys   int64     `json:"total_keys"`
	LastCleanup time.Time `json:"last_cleanup"`
}

// Tracks is a TTL table of CoT events keyed by uid.
type Tracks struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	sweep   time.Duration
	now     func() time.Time

	statsMu sync.Mutex
	stats   Stats
}

// NewTracks returns an empty table. ttl applies to events without a stale
// time; zero means five minutes.
func NewTracks(ttl time.Duration) *Tracks {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Tracks{
		entries: make(map[string]Entry),
		ttl:     ttl,
		sweep:   DefaultSweepInterval,
		now:     time.Now,
	}
}

// Publish records ev as the latest event for its uid. An event that is
// already stale removes the uid instead.
func (t *Tracks) Publish(_ context.Context, connection string, ev *cot.Event) error {
	if ev == nil || ev.UID == "" || ev.Class() != cot.ClassEvent || ev.Type == cot.TypePing {
		return nil
	}
	now := t.now()
	expires := ev.Stale
	if expires.IsZero() {
		expires = now.Add(t.ttl)
	}

	t.mu.Lock()
	if !now.Before(expires) {
		_, existed := t.entries[ev.UID]
		delete(t.entries, ev.UID)
		n := len(t.entries)
		t.mu.Unlock()
		t.record(func(s *Stats) {
			if existed {
				s.Expired++
			}
			s.TotalKeys = int64(n)
		})
		return nil
	}
	t.entries[ev.UID] = Entry{Event: ev, Connection: connection, Updated: now, ExpiresAt: expires}
	n := len(t.entries)
	t.mu.Unlock()

	t.record(func(s *Stats) {
		s.Observed++
		s.TotalKeys = int64(n)
	})
	return nil
}

// Get returns the live entry for uid.
func (t *Tracks) Get(uid string) (Entry, bool) {
	t.mu.RLock()
	e, ok := t.entries[uid]
	t.mu.RUnlock()
	if !ok || !t.now().Before(e.ExpiresAt) {
		return Entry{}, false
	}
	return e, true
}

// Snapshot returns the live entries ordered by uid.
func (t *Tracks) Snapshot() []Entry {
	now := t.now()
	t.mu.RLock()
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		if now.Before(e.ExpiresAt) {
			out = append(out, e)
		}
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Event.UID < out[j].Event.UID })
	return out
}

// FeatureCollection is a GeoJSON collection of live tracks.
type FeatureCollection struct {
	Type     string        `json:"type"`
	Features []cot.Feature `json:"features"`
}

// Features returns the live tracks as GeoJSON.
func (t *Tracks) Features() FeatureCollection {
	entries := t.Snapshot()
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]cot.Feature, 0, len(entries))}
	for _, e := range entries {
		f := e.Event.ToFeature()
		f.Properties["connection"] = e.Connection
		fc.Features = append(fc.Features, f)
	}
	return fc
}

// Len counts stored entries, including expired ones not yet swept.
func (t *Tracks) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// GetStats returns a copy of the current statistics.
func (t *Tracks) GetStats() Stats {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	return t.stats
}

// Serve sweeps expired entries until ctx is done. It implements
// suture.Service.
func (t *Tracks) Serve(ctx context.Context) error {
	ticker := time.NewTicker(t.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := t.cleanup(); n > 0 {
				logging.Debug().Int("expired", n).Int("remaining", t.Len()).Msg("Swept stale tracks")
			}
		}
	}
}

// String names the service in supervisor logs.
func (t *Tracks) String() string { return "track-cache" }

// cleanup removes expired entries and returns how many it removed.
func (t *Tracks) cleanup() int {
	now := t.now()
	t.mu.Lock()
	removed := 0
	for uid, e := range t.entries {
		if !now.Before(e.ExpiresAt) {
			delete(t.entries, uid)
			removed++
		}
	}
	n := len(t.entries)
	t.mu.Unlock()

	t.record(func(s *Stats) {
		s.Expired += int64(removed)
		s.TotalKeys = int64(n)
		s.LastCleanup = now
	})
	return removed
}

func (t *Tracks) record(fn func(*Stats)) {
	t.statsMu.Lock()
	fn(&t.stats)
	t.statsMu.Unlock()
}
