// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tomtom215/takbridge/internal/cot"
)

// LatestCots returns the Mission's current CoT snapshot as XML.
func (m *Missions) LatestCots(ctx context.Context, name string, opts *MissionOptions) (string, error) {
	fo := missionFetch(opts, nil)
	fo.Header = http.Header{"Accept": {"application/xml"}}

	resp, err := m.c.Fetch(ctx, http.MethodGet, missionPath(name, "/cot"), fo)
	if err != nil {
		return "", fmt.Errorf("latest cots of mission %q: %w", name, err)
	}
	return resp.Text(), nil
}

// LatestFeatsInput scopes LatestFeats to one top-level layer.
type LatestFeatsInput struct {
	LayerUID string
}

// LatestFeats converts the Mission's CoT snapshot to features. With a
// LayerUID only features whose UID belongs to that layer are kept. An
// empty snapshot is an empty slice.
func (m *Missions) LatestFeats(ctx context.Context, name string, in *LatestFeatsInput, opts *MissionOptions) ([]cot.Feature, error) {
	raw, err := m.LatestCots(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	events, err := cot.ParseCollection([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("latest feats of mission %q: %w", name, err)
	}

	var members map[string]struct{}
	if in != nil && in.LayerUID != "" {
		layer, err := m.c.Layers.Get(ctx, name, in.LayerUID, opts)
		if err != nil {
			return nil, err
		}
		members = make(map[string]struct{}, len(layer.UIDs))
		for _, u := range layer.UIDs {
			members[u.Data] = struct{}{}
		}
	}

	feats := make([]cot.Feature, 0, len(events))
	for _, ev := range events {
		if members != nil {
			if _, ok := members[ev.UID]; !ok {
				continue
			}
		}
		feats = append(feats, ev.ToFeature())
	}
	return feats, nil
}
