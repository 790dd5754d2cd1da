// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package config

import (
	"net"
	"strconv"
	"time"
)

// Auth modes accepted in tak.auth_mode.
const (
	AuthModePassword    = "password"
	AuthModeToken       = "token"
	AuthModeCertificate = "certificate"
)

// Config holds all application configuration.
type Config struct {
	TAK     TAKConfig     `koanf:"tak"`
	Stream  StreamConfig  `koanf:"stream"`
	Sync    SyncConfig    `koanf:"sync"`
	Store   StoreConfig   `koanf:"store"`
	Events  EventsConfig  `koanf:"events"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

// TAKConfig describes the TAK Server and how to authenticate against it.
type TAKConfig struct {
	Host       string `koanf:"host" validate:"required,hostname_rfc1123|ip"`
	APIPort    int    `koanf:"api_port" validate:"min=1,max=65535"`
	WebTAKPort int    `koanf:"webtak_port" validate:"min=1,max=65535"`
	StreamPort int    `koanf:"stream_port" validate:"min=1,max=65535"`

	AuthMode string `koanf:"auth_mode" validate:"oneof=password token certificate"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Token    string `koanf:"token"`

	CertFile    string `koanf:"cert_file"`
	KeyFile     string `koanf:"key_file"`
	P12File     string `koanf:"p12_file"`
	P12Password string `koanf:"p12_password"`

	// ConnectionID is the local id of this Server connection; it appears in
	// creator UIDs as connection-<id>-data-<data id>.
	ConnectionID int64 `koanf:"connection_id" validate:"min=1"`

	Timeout           time.Duration `koanf:"timeout" validate:"min=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"min=0"`
	Burst             int           `koanf:"burst" validate:"min=0"`
	CircuitBreaker    bool          `koanf:"circuit_breaker"`
}

// HasCertificate reports whether client certificate material is configured.
func (t *TAKConfig) HasCertificate() bool {
	return (t.CertFile != "" && t.KeyFile != "") || t.P12File != ""
}

// StreamConfig configures the CoT streaming socket.
type StreamConfig struct {
	Enabled        bool          `koanf:"enabled"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"min=0"`
	ReconnectDelay time.Duration `koanf:"reconnect_delay" validate:"min=0"`
	// Callsign is advertised in the handshake ping.
	Callsign string `koanf:"callsign"`
	// UID is the client UID Missions are subscribed under. Defaults to
	// connection-{connection_id}.
	UID string `koanf:"uid"`
	// TrackTTL expires tracked events that carry no stale time.
	TrackTTL time.Duration `koanf:"track_ttl" validate:"min=0"`
}

// SyncConfig configures the Data-Mission reconciler schedule.
type SyncConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval" validate:"min=1s"`
	// MaxLayers caps how many local layers are examined per run.
	MaxLayers int `koanf:"max_layers" validate:"min=1,max=100"`
}

// StoreConfig configures the Badger store.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// EventsConfig configures the Watermill hand-off of framed CoT events.
type EventsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Topic   string `koanf:"topic" validate:"required"`
	// NATSURL is used only in builds with the nats tag.
	NATSURL string `koanf:"nats_url"`
}

// ServerConfig configures the health/status HTTP listener.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout           time.Duration `koanf:"timeout" validate:"min=0"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"min=0"`
}

// Addr returns host:port for net.Listen.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}
