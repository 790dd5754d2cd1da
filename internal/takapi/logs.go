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
)

const logEntriesPath = "/Marti/api/missions/logs/entries"

// MissionLogs covers Mission log entries.
type MissionLogs struct {
	c *Client
}

// CreateLogInput is a new log entry. MissionNames defaults to the Mission
// the call is scoped to.
type CreateLogInput struct {
	Content       string   `json:"content" validate:"required"`
	CreatorUID    string   `json:"creatorUid" validate:"required"`
	MissionNames  []string `json:"missionNames"`
	DTG           string   `json:"dtg,omitempty"`
	ContentHashes []string `json:"contentHashes,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
}

// Create posts a log entry to a Mission.
func (l *MissionLogs) Create(ctx context.Context, mission string, in CreateLogInput, opts *MissionOptions) (*MissionLog, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if len(in.MissionNames) == 0 {
		in.MissionNames = []string{mission}
	}
	fo := missionFetch(opts, nil)
	fo.Body = in

	var env Envelope[MissionLog]
	if err := l.c.fetchJSON(ctx, http.MethodPost, logEntriesPath, fo, &env); err != nil {
		return nil, fmt.Errorf("create log in mission %q: %w", mission, err)
	}
	return &env.Data, nil
}

// Update replaces the content of an existing entry.
func (l *MissionLogs) Update(ctx context.Context, mission, id string, in CreateLogInput, opts *MissionOptions) (*MissionLog, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if len(in.MissionNames) == 0 {
		in.MissionNames = []string{mission}
	}
	fo := missionFetch(opts, nil)
	fo.Body = struct {
		ID string `json:"id"`
		CreateLogInput
	}{ID: id, CreateLogInput: in}

	var env Envelope[MissionLog]
	if err := l.c.fetchJSON(ctx, http.MethodPut, logEntriesPath, fo, &env); err != nil {
		return nil, fmt.Errorf("update log %s in mission %q: %w", id, mission, err)
	}
	return &env.Data, nil
}

// Get fetches one entry.
func (l *MissionLogs) Get(ctx context.Context, id string, opts *MissionOptions) (*MissionLog, error) {
	var env Envelope[MissionLog]
	if err := l.c.fetchJSON(ctx, http.MethodGet, logEntriesPath+"/"+url.PathEscape(id), missionFetch(opts, nil), &env); err != nil {
		return nil, fmt.Errorf("get log %s: %w", id, err)
	}
	return &env.Data, nil
}

// Delete removes one entry.
func (l *MissionLogs) Delete(ctx context.Context, id string, opts *MissionOptions) error {
	if err := l.c.fetchJSON(ctx, http.MethodDelete, logEntriesPath+"/"+url.PathEscape(id), missionFetch(opts, nil), nil); err != nil {
		return fmt.Errorf("delete log %s: %w", id, err)
	}
	return nil
}

// List returns a Mission's entries. The Server only exposes them through
// the Mission itself.
func (l *MissionLogs) List(ctx context.Context, mission string, opts *MissionOptions) ([]MissionLog, error) {
	m, err := l.c.Missions.Get(ctx, mission, &GetMissionInput{Logs: true}, opts)
	if err != nil {
		return nil, fmt.Errorf("list logs of mission %q: %w", mission, err)
	}
	if m.Logs == nil {
		return []MissionLog{}, nil
	}
	return m.Logs, nil
}
