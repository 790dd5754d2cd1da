// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/takbridge/internal/datasync"
	"github.com/tomtom215/takbridge/internal/takapi"
)

type staticSource struct {
	records []*datasync.DataConnection
	err     error
}

func (s *staticSource) ListDataConnections(context.Context) ([]*datasync.DataConnection, error) {
	return s.records, s.err
}

func (s *staticSource) GetDataConnection(_ context.Context, id int64) (*datasync.DataConnection, error) {
	for _, d := range s.records {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("data connection %d: not found", id)
}

// fakeSyncer fails for ids in fail and tracks overlapping runs per id.
type fakeSyncer struct {
	fail    map[int64]bool
	delay   time.Duration
	calls   atomic.Int32
	mu      sync.Mutex
	running map[int64]int
	overlap bool
}

func (f *fakeSyncer) Sync(_ context.Context, d *datasync.DataConnection) (*takapi.Mission, error) {
	f.calls.Add(1)
	f.mu.Lock()
	if f.running == nil {
		f.running = make(map[int64]int)
	}
	f.running[d.ID]++
	if f.running[d.ID] > 1 {
		f.overlap = true
	}
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	f.running[d.ID]--
	f.mu.Unlock()

	if f.fail[d.ID] {
		return nil, errors.New("server unavailable")
	}
	if !d.MissionSync {
		return nil, nil
	}
	return &takapi.Mission{Name: d.Name}, nil
}

func records() []*datasync.DataConnection {
	return []*datasync.DataConnection{
		{ID: 1, Connection: 1, Name: "Wildfire-Ops", MissionSync: true},
		{ID: 2, Connection: 1, Name: "Flood-Watch", MissionSync: false},
		{ID: 3, Connection: 1, Name: "Search", MissionSync: true},
	}
}

func TestReconcileRunOnce(t *testing.T) {
	syncer := &fakeSyncer{fail: map[int64]bool{3: true}}
	svc := NewReconcileService(&staticSource{records: records()}, syncer, time.Hour)

	err := svc.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected joined error for data 3")
	}
	if n := syncer.calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3 (a failure must not stop the pass)", n)
	}

	results := svc.Results()
	if len(results) != 3 {
		t.Fatalf("results = %+v", results)
	}
	tests := []struct {
		id      int64
		present bool
		failed  bool
	}{
		{1, true, false},
		{2, false, false},
		{3, false, true},
	}
	for i, tt := range tests {
		r := results[i]
		if r.DataID != tt.id || r.Present != tt.present || (r.Error != "") != tt.failed {
			t.Errorf("results[%d] = %+v", i, r)
		}
	}
}

func TestReconcileListError(t *testing.T) {
	svc := NewReconcileService(&staticSource{err: errors.New("db closed")}, &fakeSyncer{}, 0)
	if err := svc.RunOnce(context.Background()); err == nil {
		t.Error("expected list error")
	}
	if svc.interval != time.Minute {
		t.Errorf("default interval = %v", svc.interval)
	}
}

func TestReconcileSyncOneSerializesPerRecord(t *testing.T) {
	syncer := &fakeSyncer{delay: 20 * time.Millisecond}
	svc := NewReconcileService(&staticSource{records: records()}, syncer, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.SyncOne(context.Background(), 1); err != nil {
				t.Errorf("SyncOne: %v", err)
			}
		}()
	}
	wg.Wait()

	if syncer.overlap {
		t.Error("runs for the same data connection overlapped")
	}
	if n := syncer.calls.Load(); n != 4 {
		t.Errorf("calls = %d, want 4", n)
	}

	if _, err := svc.SyncOne(context.Background(), 99); err == nil {
		t.Error("expected error for unknown id")
	}
}

// tokenSource hands out copies so a record loaded early keeps its old token.
type tokenSource struct {
	mu    sync.Mutex
	token *string
}

func (s *tokenSource) ListDataConnections(ctx context.Context) ([]*datasync.DataConnection, error) {
	d, _ := s.GetDataConnection(ctx, 1)
	return []*datasync.DataConnection{d}, nil
}

func (s *tokenSource) GetDataConnection(_ context.Context, id int64) (*datasync.DataConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &datasync.DataConnection{ID: id, Connection: 1, Name: "Wildfire-Ops", MissionSync: true, MissionToken: s.token}, nil
}

// creatingSyncer saves a token on its first run, like a Mission create.
type creatingSyncer struct {
	source  *tokenSource
	started chan struct{}
	mu      sync.Mutex
	seen    []bool
}

func (c *creatingSyncer) Sync(_ context.Context, d *datasync.DataConnection) (*takapi.Mission, error) {
	c.mu.Lock()
	first := len(c.seen) == 0
	c.seen = append(c.seen, d.MissionToken != nil)
	c.mu.Unlock()

	if first {
		close(c.started)
		time.Sleep(30 * time.Millisecond)
		tok := "owner-token"
		c.source.mu.Lock()
		c.source.token = &tok
		c.source.mu.Unlock()
	}
	return &takapi.Mission{Name: d.Name}, nil
}

func TestReconcileSyncOneLoadsUnderLock(t *testing.T) {
	source := &tokenSource{}
	syncer := &creatingSyncer{source: source, started: make(chan struct{})}
	svc := NewReconcileService(source, syncer, time.Hour)

	done := make(chan error, 1)
	go func() {
		done <- svc.RunOnce(context.Background())
	}()
	<-syncer.started

	if _, err := svc.SyncOne(context.Background(), 1); err != nil {
		t.Fatalf("SyncOne: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	if len(syncer.seen) != 2 {
		t.Fatalf("runs = %d, want 2", len(syncer.seen))
	}
	if syncer.seen[0] {
		t.Error("first run saw a token before one was saved")
	}
	if !syncer.seen[1] {
		t.Error("waiting run started from a stale record without the saved token")
	}
}

func TestReconcileServeRunsImmediately(t *testing.T) {
	syncer := &fakeSyncer{}
	svc := NewReconcileService(&staticSource{records: records()[:1]}, syncer, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for syncer.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve = %v", err)
	}
	if syncer.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", syncer.calls.Load())
	}
}
