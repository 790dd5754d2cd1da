// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/goccy/go-json"
)

// Response is the transport-independent result every auth strategy returns.
// The body is read fully before the response is handed back.
type Response struct {
	Status int
	Header http.Header
	body   []byte
}

func newResponse(status int, header http.Header, body []byte) *Response {
	if header == nil {
		header = http.Header{}
	}
	return &Response{Status: status, Header: header, body: body}
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.body)
}

// Bytes returns the raw body.
func (r *Response) Bytes() []byte {
	return r.body
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsJSON reports whether the Content-Type is application/json.
func (r *Response) IsJSON() bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// OK reports a status in [200,400).
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 400
}
