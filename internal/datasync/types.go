// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package datasync

import (
	"context"
	"fmt"
)

// DataConnection is the local desired state for one Mission.
type DataConnection struct {
	ID            int64    `json:"id" validate:"required,min=1"`
	Connection    int64    `json:"connection" validate:"required,min=1"`
	Name          string   `json:"name" validate:"required"`
	Description   string   `json:"description,omitempty"`
	MissionSync   bool     `json:"mission_sync"`
	MissionToken  *string  `json:"mission_token,omitempty"`
	MissionRole   string   `json:"mission_role,omitempty"`
	MissionGroups []string `json:"mission_groups,omitempty"`
}

// CreatorUID identifies this Data Connection as the author of Server
// objects it creates.
func (d *DataConnection) CreatorUID() string {
	return fmt.Sprintf("connection-%d-data-%d", d.Connection, d.ID)
}

// Token returns the stored Mission token or "".
func (d *DataConnection) Token() string {
	if d.MissionToken == nil {
		return ""
	}
	return *d.MissionToken
}

// Layer is a local layer feeding a Data Connection.
type Layer struct {
	ID     int64  `json:"id"`
	DataID int64  `json:"data"`
	Name   string `json:"name"`
}

// LayerUID is the Mission layer UID derived from a local layer id.
func LayerUID(id int64) string {
	return fmt.Sprintf("layer-%d", id)
}

// Store is the persistence the reconciler needs.
type Store interface {
	// SaveMissionToken records the token returned when a Mission is created.
	SaveMissionToken(ctx context.Context, dataID int64, token string) error
	// ListLayers returns at most limit layers belonging to dataID.
	ListLayers(ctx context.Context, dataID int64, limit int) ([]Layer, error)
	// SubscriberUID returns the client UID the connection streams under,
	// or "" when it has none.
	SubscriberUID(ctx context.Context, connection int64) (string, error)
}
