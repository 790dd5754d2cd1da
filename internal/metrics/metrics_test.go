// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// sampleCount reads the observation count of a histogram.
func sampleCount(t *testing.T, obs prometheus.Observer) uint64 {
	t.Helper()
	m, ok := obs.(prometheus.Metric)
	if !ok {
		t.Fatalf("%T is not a prometheus.Metric", obs)
	}
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return pb.GetHistogram().GetSampleCount()
}

func TestSetStreamState(t *testing.T) {
	SetStreamState("7", 3)
	if got := testutil.ToFloat64(StreamState.WithLabelValues("7")); got != 3 {
		t.Errorf("StreamState = %v, want 3", got)
	}
	SetStreamState("7", 4)
	if got := testutil.ToFloat64(StreamState.WithLabelValues("7")); got != 4 {
		t.Errorf("StreamState = %v, want 4", got)
	}
}

func TestRecordStreamEvent(t *testing.T) {
	before := testutil.ToFloat64(StreamEventsTotal.WithLabelValues("t1", "ack"))
	RecordStreamEvent("t1", "ack")
	RecordStreamEvent("t1", "ack")
	if got := testutil.ToFloat64(StreamEventsTotal.WithLabelValues("t1", "ack")) - before; got != 2 {
		t.Errorf("delta = %v, want 2", got)
	}
}

func TestRecordStreamRead_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(StreamBytesRead.WithLabelValues("t2"))
	RecordStreamRead("t2", 0)
	RecordStreamRead("t2", -1)
	RecordStreamRead("t2", 128)
	if got := testutil.ToFloat64(StreamBytesRead.WithLabelValues("t2")) - before; got != 128 {
		t.Errorf("delta = %v, want 128", got)
	}
}

func TestRecordStreamWrite(t *testing.T) {
	okBefore := testutil.ToFloat64(StreamWritesTotal.WithLabelValues("t3", "success"))
	failBefore := testutil.ToFloat64(StreamWritesTotal.WithLabelValues("t3", "failure"))

	RecordStreamWrite("t3", nil)
	RecordStreamWrite("t3", errors.New("broken pipe"))

	if got := testutil.ToFloat64(StreamWritesTotal.WithLabelValues("t3", "success")) - okBefore; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(StreamWritesTotal.WithLabelValues("t3", "failure")) - failBefore; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}
}

func TestRecordTAKRequest(t *testing.T) {
	tests := []struct {
		name   string
		status int
		label  string
	}{
		{"ok", http.StatusOK, "200"},
		{"not found", http.StatusNotFound, "404"},
		{"transport failure", 0, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(TAKRequestsTotal.WithLabelValues(http.MethodPut, tt.label))
			RecordTAKRequest(http.MethodPut, tt.status, 15*time.Millisecond)
			if got := testutil.ToFloat64(TAKRequestsTotal.WithLabelValues(http.MethodPut, tt.label)) - before; got != 1 {
				t.Errorf("delta = %v, want 1", got)
			}
		})
	}
}

func TestRecordReconcile(t *testing.T) {
	before := testutil.ToFloat64(ReconcileRunsTotal.WithLabelValues("deleted"))
	RecordReconcile("deleted", 20*time.Millisecond)
	if got := testutil.ToFloat64(ReconcileRunsTotal.WithLabelValues("deleted")) - before; got != 1 {
		t.Errorf("delta = %v, want 1", got)
	}

	actionBefore := testutil.ToFloat64(ReconcileActionsTotal.WithLabelValues("layer_created"))
	RecordReconcileAction("layer_created")
	if got := testutil.ToFloat64(ReconcileActionsTotal.WithLabelValues("layer_created")) - actionBefore; got != 1 {
		t.Errorf("action delta = %v, want 1", got)
	}
}

func TestRecordEventPublish(t *testing.T) {
	before := testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("failure"))
	RecordEventPublish(errors.New("closed"))
	if got := testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("failure")) - before; got != 1 {
		t.Errorf("delta = %v, want 1", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200"))
	RecordHTTPRequest("GET", "/healthz", 200)
	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")) - before; got != 1 {
		t.Errorf("delta = %v, want 1", got)
	}
}

func TestDurationHistograms(t *testing.T) {
	before := sampleCount(t, ReconcileDuration)
	RecordReconcile("created", 120*time.Millisecond)
	if got := sampleCount(t, ReconcileDuration) - before; got != 1 {
		t.Errorf("reconcile observations = %d, want 1", got)
	}

	obs := StoreOperationDuration.WithLabelValues("list_layers")
	before = sampleCount(t, obs)
	RecordStoreOperation("list_layers", time.Millisecond)
	RecordStoreOperation("list_layers", 2*time.Millisecond)
	if got := sampleCount(t, obs) - before; got != 2 {
		t.Errorf("store observations = %d, want 2", got)
	}
}
