// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// MissionLayerType is the kind of node in a Mission's layer tree.
type MissionLayerType string

const (
	LayerGroup    MissionLayerType = "GROUP"
	LayerUID      MissionLayerType = "UID"
	LayerContents MissionLayerType = "CONTENTS"
	LayerMapLayer MissionLayerType = "MAPLAYER"
	LayerItem     MissionLayerType = "ITEM"
)

// MissionLayer is a node in a Mission's layer tree.
type MissionLayer struct {
	UID           string           `json:"uid"`
	Name          string           `json:"name"`
	Type          MissionLayerType `json:"type"`
	ParentUID     string           `json:"parentUid,omitempty"`
	MissionLayers []MissionLayer   `json:"mission_layers,omitempty"`
	UIDs          []MissionUID     `json:"uids"`
	Contents      []MissionContent `json:"contents,omitempty"`
	MapLayers     []any            `json:"maplayers,omitempty"`
}

// IsEmpty reports whether the layer has no children, UIDs, contents or
// map layers.
func (l *MissionLayer) IsEmpty() bool {
	return len(l.MissionLayers) == 0 && len(l.UIDs) == 0 && len(l.Contents) == 0 && len(l.MapLayers) == 0
}

// CreateLayerInput describes a new layer. UID is generated by the Server
// when empty.
type CreateLayerInput struct {
	Name       string           `validate:"required"`
	Type       MissionLayerType `validate:"required,oneof=GROUP UID CONTENTS MAPLAYER ITEM"`
	UID        string
	ParentUID  string
	AfterUID   string
	CreatorUID string
}

// DeleteLayerInput removes one or more layers.
type DeleteLayerInput struct {
	UIDs       []string `validate:"required,min=1"`
	CreatorUID string
}

// MissionLayers covers the layer endpoints of a Mission.
type MissionLayers struct {
	c *Client
}

// List returns the top-level layers with their children. UID layers
// always carry a non-nil UIDs slice.
func (l *MissionLayers) List(ctx context.Context, name string, opts *MissionOptions) ([]MissionLayer, error) {
	var list List[MissionLayer]
	if err := l.c.missionJSON(ctx, http.MethodGet, name, "/layers", missionFetch(opts, nil), &list); err != nil {
		return nil, fmt.Errorf("list layers of mission %q: %w", name, err)
	}
	if list.Data == nil {
		list.Data = []MissionLayer{}
	}
	normalizeLayers(list.Data)
	return list.Data, nil
}

func normalizeLayers(layers []MissionLayer) {
	for i := range layers {
		if layers[i].Type == LayerUID && layers[i].UIDs == nil {
			layers[i].UIDs = []MissionUID{}
		}
		normalizeLayers(layers[i].MissionLayers)
	}
}

// Get finds a layer by UID among the top-level layers. Nested layers are
// not searched; a layer that only exists below another yields
// ErrLayerNotFound.
func (l *MissionLayers) Get(ctx context.Context, name, layerUID string, opts *MissionOptions) (*MissionLayer, error) {
	layers, err := l.List(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	for i := range layers {
		if layers[i].UID == layerUID {
			return &layers[i], nil
		}
	}
	return nil, fmt.Errorf("layer %q in mission %q: %w", layerUID, name, ErrLayerNotFound)
}

// Create adds a layer.
func (l *MissionLayers) Create(ctx context.Context, name string, in CreateLayerInput, opts *MissionOptions) (*MissionLayer, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	q := query{}.
		str("uid", in.UID).
		str("name", in.Name).
		str("type", string(in.Type)).
		str("parentUid", in.ParentUID).
		str("afterUid", in.AfterUID).
		str("creatorUid", in.CreatorUID)

	var env Envelope[MissionLayer]
	if err := l.c.missionJSON(ctx, http.MethodPut, name, "/layers", missionFetch(opts, url.Values(q)), &env); err != nil {
		return nil, fmt.Errorf("create layer %q in mission %q: %w", in.Name, name, err)
	}
	return &env.Data, nil
}

// Rename changes a layer's display name.
func (l *MissionLayers) Rename(ctx context.Context, name, layerUID, newName, creatorUID string, opts *MissionOptions) (*MissionLayer, error) {
	if strings.TrimSpace(newName) == "" {
		return nil, fmt.Errorf("%w: layer name is required", ErrConfiguration)
	}
	q := query{}.
		str("name", newName).
		str("creatorUid", creatorUID)

	var env Envelope[MissionLayer]
	suffix := "/layers/" + url.PathEscape(layerUID) + "/name"
	if err := l.c.missionJSON(ctx, http.MethodPut, name, suffix, missionFetch(opts, url.Values(q)), &env); err != nil {
		return nil, fmt.Errorf("rename layer %q in mission %q: %w", layerUID, name, err)
	}
	return &env.Data, nil
}

// Delete removes layers. Multiple UIDs are sent comma-joined in a single
// uid parameter.
func (l *MissionLayers) Delete(ctx context.Context, name string, in DeleteLayerInput, opts *MissionOptions) error {
	if err := validateInput(in); err != nil {
		return err
	}
	q := query{}.
		str("uid", strings.Join(in.UIDs, ",")).
		str("creatorUid", in.CreatorUID)
	if err := l.c.missionJSON(ctx, http.MethodDelete, name, "/layers", missionFetch(opts, url.Values(q)), nil); err != nil {
		return fmt.Errorf("delete layers %v in mission %q: %w", in.UIDs, name, err)
	}
	return nil
}
