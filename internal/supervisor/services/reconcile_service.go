// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/takbridge/internal/datasync"
	"github.com/tomtom215/takbridge/internal/logging"
	"github.com/tomtom215/takbridge/internal/takapi"
)

// RecordSource lists the Data Connections to reconcile.
type RecordSource interface {
	ListDataConnections(ctx context.Context) ([]*datasync.DataConnection, error)
	GetDataConnection(ctx context.Context, id int64) (*datasync.DataConnection, error)
}

// Syncer reconciles one Data Connection.
type Syncer interface {
	Sync(ctx context.Context, d *datasync.DataConnection) (*takapi.Mission, error)
}

// SyncResult is the outcome of the latest run for one Data Connection.
type SyncResult struct {
	DataID   int64     `json:"data_id"`
	Mission  string    `json:"mission"`
	Present  bool      `json:"present"`
	Error    string    `json:"error,omitempty"`
	Finished time.Time `json:"finished"`
}

// ReconcileService runs the reconciler for every Data Connection on an
// interval. Runs for the same Data Connection never overlap.
type ReconcileService struct {
	source   RecordSource
	syncer   Syncer
	interval time.Duration

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex

	resultsMu sync.RWMutex
	results   map[int64]SyncResult
}

// NewReconcileService returns a service syncing every interval (one
// minute when non-positive).
func NewReconcileService(source RecordSource, syncer Syncer, interval time.Duration) *ReconcileService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReconcileService{
		source:   source,
		syncer:   syncer,
		interval: interval,
		locks:    make(map[int64]*sync.Mutex),
		results:  make(map[int64]SyncResult),
	}
}

// Serve implements suture.Service. A pass runs immediately and then on
// every tick; failures are recorded, not returned.
func (s *ReconcileService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logging.Warn().Err(err).Msg("Reconcile pass finished with errors")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce reconciles every Data Connection in id order and joins the
// failures.
func (s *ReconcileService) RunOnce(ctx context.Context) error {
	records, err := s.source.ListDataConnections(ctx)
	if err != nil {
		return fmt.Errorf("list data connections: %w", err)
	}

	var errs []error
	for _, d := range records {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.syncRecord(ctx, d.ID); err != nil {
			errs = append(errs, fmt.Errorf("data %d: %w", d.ID, err))
		}
	}
	return errors.Join(errs...)
}

// SyncOne reconciles a single Data Connection by id, waiting for any run
// already in progress for it.
func (s *ReconcileService) SyncOne(ctx context.Context, id int64) (*takapi.Mission, error) {
	return s.syncRecord(ctx, id)
}

// syncRecord loads the record under the per-id lock so a run sees the
// Mission token saved by the run before it.
func (s *ReconcileService) syncRecord(ctx context.Context, id int64) (*takapi.Mission, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	d, err := s.source.GetDataConnection(ctx, id)
	if err != nil {
		return nil, err
	}

	mission, err := s.syncer.Sync(logging.ContextWithNewCorrelationID(ctx), d)

	result := SyncResult{DataID: d.ID, Mission: d.Name, Present: mission != nil, Finished: time.Now().UTC()}
	if err != nil {
		result.Error = err.Error()
	}
	s.resultsMu.Lock()
	s.results[d.ID] = result
	s.resultsMu.Unlock()

	return mission, err
}

func (s *ReconcileService) lockFor(id int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

// Results returns the latest result per Data Connection ordered by id.
func (s *ReconcileService) Results() []SyncResult {
	s.resultsMu.RLock()
	defer s.resultsMu.RUnlock()
	out := make([]SyncResult, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DataID < out[j].DataID })
	return out
}

func (s *ReconcileService) String() string {
	return "reconcile-scheduler"
}
