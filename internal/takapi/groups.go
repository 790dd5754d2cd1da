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
	"strconv"
)

// Group is a Server group and whether it is active for the caller.
type Group struct {
	Name        string `json:"name"`
	Direction   string `json:"direction"`
	Created     string `json:"created,omitempty"`
	Type        string `json:"type,omitempty"`
	BitPosition int    `json:"bitpos"`
	Active      bool   `json:"active"`
	Description string `json:"description,omitempty"`
}

// Groups covers group membership endpoints.
type Groups struct {
	c *Client
}

// List returns the caller's groups.
func (g *Groups) List(ctx context.Context, useCache bool) ([]Group, error) {
	var list List[Group]
	fo := FetchOptions{Query: url.Values{"useCache": {strconv.FormatBool(useCache)}}}
	if err := g.c.fetchJSON(ctx, http.MethodGet, "/Marti/api/groups/all", fo, &list); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return list.Data, nil
}

// UpdateActive replaces the active flags of the caller's groups in one
// request.
func (g *Groups) UpdateActive(ctx context.Context, groups []Group) error {
	if groups == nil {
		groups = []Group{}
	}
	if err := g.c.fetchJSON(ctx, http.MethodPut, "/Marti/api/groups/active", FetchOptions{Body: groups}, nil); err != nil {
		return fmt.Errorf("update active groups: %w", err)
	}
	return nil
}

// Names returns the names of groups, in order.
func Names(groups []Group) []string {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	return names
}
