// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
)

// RequestOptions carries per-call switches an Auth strategy honours.
type RequestOptions struct {
	// NoCookies suppresses the access_token cookie. The password strategy
	// sends Basic authorization instead (client certificate issuance).
	NoCookies bool
}

// Auth authorizes and dispatches requests for one credential type.
type Auth interface {
	// Init performs any exchange needed before the first request.
	Init(ctx context.Context, c *Client) error
	// Do authorizes req and sends it, returning a fully read Response.
	Do(ctx context.Context, c *Client, req *http.Request, opts RequestOptions) (*Response, error)
}

// NewAuth selects the strategy for cred.
func NewAuth(cred Credential) (Auth, error) {
	switch v := cred.(type) {
	case PasswordCredential:
		if v.Username == "" || v.Password == "" {
			return nil, fmt.Errorf("%w: username and password are required", ErrConfiguration)
		}
		return &PasswordAuth{username: v.Username, password: v.Password}, nil
	case *PasswordCredential:
		return NewAuth(*v)
	case TokenCredential:
		if v.Token == "" {
			return nil, fmt.Errorf("%w: token is required", ErrConfiguration)
		}
		return &TokenAuth{token: v.Token}, nil
	case *TokenCredential:
		return NewAuth(*v)
	case *CertificateCredential:
		if _, err := v.KeyPair(); err != nil {
			return nil, err
		}
		return &CertificateAuth{cred: v}, nil
	case nil:
		return nil, fmt.Errorf("%w: no credential", ErrConfiguration)
	default:
		return nil, fmt.Errorf("%w: unsupported credential %T", ErrConfiguration, cred)
	}
}

const accessTokenCookie = "access_token"

// PasswordAuth exchanges a username and password for an OAuth token on
// Init and sends it as a cookie. Calls are routed to the WebTAK port.
type PasswordAuth struct {
	username string
	password string

	mu    sync.RWMutex
	token string
}

// Init performs the token exchange.
func (a *PasswordAuth) Init(ctx context.Context, c *Client) error {
	login, err := c.OAuth.Login(ctx, a.username, a.password)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.token = login.Token
	a.mu.Unlock()
	return nil
}

// Token returns the exchanged token, empty before Init.
func (a *PasswordAuth) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Do sends req to the WebTAK port with the session cookie, or with Basic
// authorization when opts.NoCookies is set.
func (a *PasswordAuth) Do(ctx context.Context, c *Client, req *http.Request, opts RequestOptions) (*Response, error) {
	req.URL.Host = net.JoinHostPort(req.URL.Hostname(), strconv.Itoa(c.endpoint.WebTAKPort))
	req.Host = ""

	if opts.NoCookies {
		req.SetBasicAuth(a.username, a.password)
	} else if tok := a.Token(); tok != "" {
		req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: tok})
	}
	return send(ctx, c.httpClient, req)
}

// TokenAuth sends a pre-issued token as a cookie.
type TokenAuth struct {
	token string
}

// Init is a no-op; the token is already issued.
func (a *TokenAuth) Init(context.Context, *Client) error { return nil }

// Do attaches the cookie unless opts.NoCookies is set.
func (a *TokenAuth) Do(ctx context.Context, c *Client, req *http.Request, opts RequestOptions) (*Response, error) {
	if !opts.NoCookies {
		req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: a.token})
	}
	return send(ctx, c.httpClient, req)
}

// CertificateAuth sends each request over a dedicated mutual-TLS transport
// scoped to the Server origin. Transports are not pooled.
type CertificateAuth struct {
	cred *CertificateCredential
}

// Init is a no-op; the handshake happens per call.
func (a *CertificateAuth) Init(context.Context, *Client) error { return nil }

// Do builds a fresh transport, sends req and closes the transport.
func (a *CertificateAuth) Do(ctx context.Context, c *Client, req *http.Request, _ RequestOptions) (*Response, error) {
	origin := c.endpoint.APIURL()
	if req.URL.Scheme != origin.Scheme || req.URL.Host != origin.Host {
		return nil, fmt.Errorf("%w: certificate transport is scoped to %s, got %s", ErrConfiguration, origin.Host, req.URL.Host)
	}

	tlsConfig, err := a.cred.TLSConfig()
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{
		TLSClientConfig:   tlsConfig,
		DisableKeepAlives: true,
		Proxy:             http.ProxyFromEnvironment,
	}
	defer transport.CloseIdleConnections()

	return send(ctx, &http.Client{Transport: transport, Timeout: c.timeout}, req)
}

// send dispatches and drains the body so every strategy returns the same shape.
func send(ctx context.Context, hc *http.Client, req *http.Request) (*Response, error) {
	resp, err := hc.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", req.Method, req.URL.Path, err)
	}
	return newResponse(resp.StatusCode, resp.Header, body), nil
}
