// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"net"
	"net/url"
	"strconv"
)

// Default TAK Server ports.
const (
	DefaultAPIPort    = 8443
	DefaultWebTAKPort = 8446
	DefaultStreamPort = 8089
)

// Endpoint locates one TAK Server. It is built once and not mutated.
type Endpoint struct {
	Scheme     string
	Host       string
	APIPort    int
	WebTAKPort int
	StreamPort int
}

// NewEndpoint returns the conventional https endpoint for host.
func NewEndpoint(host string) Endpoint {
	return Endpoint{
		Scheme:     "https",
		Host:       host,
		APIPort:    DefaultAPIPort,
		WebTAKPort: DefaultWebTAKPort,
		StreamPort: DefaultStreamPort,
	}
}

func (e Endpoint) scheme() string {
	if e.Scheme == "" {
		return "https"
	}
	return e.Scheme
}

// APIURL is the management API origin.
func (e Endpoint) APIURL() *url.URL {
	return &url.URL{Scheme: e.scheme(), Host: net.JoinHostPort(e.Host, strconv.Itoa(e.APIPort))}
}

// WebTAKURL is the origin for OAuth token exchange and password-session calls.
func (e Endpoint) WebTAKURL() *url.URL {
	return &url.URL{Scheme: e.scheme(), Host: net.JoinHostPort(e.Host, strconv.Itoa(e.WebTAKPort))}
}

// StreamAddr is host:port of the CoT streaming socket.
func (e Endpoint) StreamAddr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.StreamPort))
}
