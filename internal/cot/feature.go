// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package cot

// Geometry is a GeoJSON Point.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Feature is the GeoJSON form of an event, keyed by the event uid.
type Feature struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Path       string         `json:"path,omitempty"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// ToFeature converts the event to a GeoJSON feature. Coordinates are
// [lon, lat, hae]; empty optional properties are omitted.
func (e *Event) ToFeature() Feature {
	props := map[string]any{
		"type":   e.Type,
		"center": []float64{e.Point.Lon, e.Point.Lat, e.Point.Hae},
	}
	if e.How != "" {
		props["how"] = e.How
	}
	if !e.Time.IsZero() {
		props["time"] = formatTime(e.Time)
	}
	if !e.Start.IsZero() {
		props["start"] = formatTime(e.Start)
	}
	if !e.Stale.IsZero() {
		props["stale"] = formatTime(e.Stale)
	}
	if e.Callsign != "" {
		props["callsign"] = e.Callsign
	}
	if e.Remarks != "" {
		props["remarks"] = e.Remarks
	}

	return Feature{
		ID:         e.UID,
		Type:       "Feature",
		Path:       "/",
		Properties: props,
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{e.Point.Lon, e.Point.Lat, e.Point.Hae},
		},
	}
}
