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

	"github.com/tomtom215/takbridge/internal/cot"
)

// HistoryInput bounds a CoT history query.
type HistoryInput struct {
	Start  string
	End    string
	Secago int
}

// Single returns the latest CoT event the Server holds for uid.
func (c *Client) Single(ctx context.Context, uid string) (*cot.Event, error) {
	resp, err := c.Fetch(ctx, http.MethodGet, "/Marti/api/cot/xml/"+url.PathEscape(uid), FetchOptions{
		Header: http.Header{"Accept": {"application/xml"}},
	})
	if err != nil {
		return nil, fmt.Errorf("cot %s: %w", uid, err)
	}
	if strings.TrimSpace(resp.Text()) == "" {
		return nil, fmt.Errorf("cot %s: %w", uid, ErrNotFound)
	}
	return cot.Parse(resp.Text())
}

// History returns every stored CoT event for uid, oldest first as the
// Server orders them.
func (c *Client) History(ctx context.Context, uid string, in *HistoryInput) ([]*cot.Event, error) {
	q := query{}
	if in != nil {
		q = q.str("start", in.Start).str("end", in.End).num("secago", int64(in.Secago))
	}
	resp, err := c.Fetch(ctx, http.MethodGet, "/Marti/api/cot/xml/"+url.PathEscape(uid)+"/all", FetchOptions{
		Query:  url.Values(q),
		Header: http.Header{"Accept": {"application/xml"}},
	})
	if err != nil {
		return nil, fmt.Errorf("cot history %s: %w", uid, err)
	}
	events, err := cot.ParseCollection(resp.Bytes())
	if err != nil {
		return nil, fmt.Errorf("cot history %s: %w", uid, err)
	}
	return events, nil
}
