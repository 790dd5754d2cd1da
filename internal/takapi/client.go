// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/takbridge/internal/logging"
	"github.com/tomtom215/takbridge/internal/metrics"
)

// Client is the single choke point for management API calls. It is safe
// for concurrent use.
type Client struct {
	endpoint   Endpoint
	auth       Auth
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	breaker    *breaker

	Missions    *Missions
	Layers      *MissionLayers
	Logs        *MissionLogs
	Groups      *Groups
	OAuth       *OAuth
	Credentials *Credentials
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport used by the password and token
// strategies. The certificate strategy always builds its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. Zero leaves requests bounded only by ctx.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimit paces outbound requests. rps <= 0 disables the limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCircuitBreaker wraps dispatch in a named circuit breaker.
func WithCircuitBreaker(name string) Option {
	return func(c *Client) { c.breaker = newBreaker(name) }
}

// New builds a Client without performing the auth exchange. Call Init (or
// use Connect) before issuing requests with a password credential.
func New(endpoint Endpoint, cred Credential, opts ...Option) (*Client, error) {
	if endpoint.Host == "" {
		return nil, fmt.Errorf("%w: server host is required", ErrConfiguration)
	}
	auth, err := NewAuth(cred)
	if err != nil {
		return nil, err
	}

	c := &Client{endpoint: endpoint, auth: auth}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}, //nolint:gosec // self-signed TAK deployments
			},
		}
	}

	c.Missions = &Missions{c: c}
	c.Layers = &MissionLayers{c: c}
	c.Logs = &MissionLogs{c: c}
	c.Groups = &Groups{c: c}
	c.OAuth = &OAuth{c: c}
	c.Credentials = &Credentials{c: c}
	return c, nil
}

// Connect is New followed by Init.
func Connect(ctx context.Context, endpoint Endpoint, cred Credential, opts ...Option) (*Client, error) {
	c, err := New(endpoint, cred, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Init runs the auth strategy's exchange.
func (c *Client) Init(ctx context.Context) error {
	return c.auth.Init(ctx, c)
}

// Endpoint returns the Server endpoint.
func (c *Client) Endpoint() Endpoint { return c.endpoint }

// Auth returns the active strategy.
func (c *Client) Auth() Auth { return c.auth }

// BreakerState reports the circuit breaker state ("closed", "half-open",
// "open"), or "disabled" when the client has no breaker.
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}

// FetchOptions describes one request.
type FetchOptions struct {
	Query  url.Values
	Header http.Header
	// Body is sent as-is for url.Values (form encoded), []byte, string and
	// io.Reader. Anything else is JSON encoded.
	Body any
	// MissionToken is sent as "MissionAuthorization: Bearer <token>".
	MissionToken string
	NoCookies    bool
	// Raw skips the status check.
	Raw bool

	unauthenticated bool
}

var errServerStatus = errors.New("server error status")

// Fetch resolves path against the API URL (absolute URLs are used as-is),
// dispatches through the auth strategy, and converts statuses outside
// [200,400) into *APIError.
func (c *Client) Fetch(ctx context.Context, method, path string, opts FetchOptions) (*Response, error) {
	u, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	if len(opts.Query) > 0 {
		q := u.Query()
		for k, vs := range opts.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	header := http.Header{}
	for k, vs := range opts.Header {
		header[k] = append([]string(nil), vs...)
	}
	if opts.MissionToken != "" {
		header.Set("MissionAuthorization", "Bearer "+opts.MissionToken)
	}
	if header.Get("Accept") == "" {
		header.Set("Accept", "application/json, application/xml;q=0.9, */*;q=0.8")
	}

	body, err := encodeBody(opts.Body, header)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = header

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.dispatch(ctx, req, opts)
	status := 0
	if resp != nil {
		status = resp.Status
	}
	metrics.RecordTAKRequest(method, status, time.Since(start))

	if err != nil && !errors.Is(err, errServerStatus) {
		logging.Debug().Err(err).Str("method", method).Str("path", u.Path).Msg("TAK request failed")
		return nil, err
	}
	logging.Debug().Str("method", method).Str("path", u.Path).Int("status", status).Msg("TAK request")

	if opts.Raw {
		return resp, nil
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) dispatch(ctx context.Context, req *http.Request, opts FetchOptions) (*Response, error) {
	do := func() (*Response, error) {
		var resp *Response
		var err error
		if opts.unauthenticated {
			resp, err = send(ctx, c.httpClient, req)
		} else {
			resp, err = c.auth.Do(ctx, c, req, RequestOptions{NoCookies: opts.NoCookies})
		}
		if err == nil && resp.Status >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, err
	}
	if c.breaker == nil {
		return do()
	}
	return c.breaker.execute(do)
}

// fetchJSON is Fetch followed by decoding into out (skipped when out is nil
// or the body is empty).
func (c *Client) fetchJSON(ctx context.Context, method, path string, opts FetchOptions, out any) error {
	resp, err := c.Fetch(ctx, method, path, opts)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Bytes())) == 0 {
		return nil
	}
	return resp.JSON(out)
}

func (c *Client) resolve(path string) (*url.URL, error) {
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		u, err := url.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		return u, nil
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}
	return c.endpoint.APIURL().ResolveReference(ref), nil
}

func encodeBody(body any, header http.Header) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case url.Values:
		header.Set("Content-Type", "application/x-www-form-urlencoded")
		return strings.NewReader(b.Encode()), nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	}

	if ct := header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return nil, fmt.Errorf("%w: cannot encode %T as %s", ErrConfiguration, body, ct)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	header.Set("Content-Type", "application/json")
	return bytes.NewReader(data), nil
}

func checkStatus(resp *Response) error {
	if resp.OK() {
		return nil
	}
	return &APIError{Status: resp.Status, Message: errorMessage(resp)}
}

// errorMessage picks the best diagnostic from an error body: a JSON
// message field, then the raw text, then the status code.
func errorMessage(resp *Response) string {
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return fmt.Sprintf("Status Code: %d", resp.Status)
	}

	var body struct {
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if json.Unmarshal([]byte(text), &body) == nil {
		for _, m := range []string{body.Message, body.ErrorDescription, body.Error} {
			if m != "" {
				return m
			}
		}
	}
	return text
}
