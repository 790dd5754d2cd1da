// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/takbridge/config.yaml",
	"/etc/takbridge/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		TAK: TAKConfig{
			APIPort:           8443,
			WebTAKPort:        8446,
			StreamPort:        8089,
			AuthMode:          AuthModeCertificate,
			ConnectionID:      1,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
			Burst:             20,
			CircuitBreaker:    true,
		},
		Stream: StreamConfig{
			Enabled:        true,
			ReadTimeout:    2 * time.Minute,
			ReconnectDelay: 5 * time.Second,
			TrackTTL:       5 * time.Minute,
		},
		Sync: SyncConfig{
			Enabled:   true,
			Interval:  5 * time.Minute,
			MaxLayers: 1,
		},
		Store: StoreConfig{
			Path: "/data/takbridge",
		},
		Events: EventsConfig{
			Enabled: true,
			Topic:   "tak.cot",
			NATSURL: "nats://127.0.0.1:4222",
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			Timeout:           30 * time.Second,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration using koanf with layered sources:
//
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is LoadWithKoanf with an explicit config file path. A missing
// file is an error here, unlike the search in LoadWithKoanf.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return LoadWithKoanf()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// TAK_HOST -> tak.host, SYNC_MAX_LAYERS -> sync.max_layers
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so the process environment cannot leak
// arbitrary keys into the config tree.
var envMappings = map[string]string{
	"tak_host":                "tak.host",
	"tak_api_port":            "tak.api_port",
	"tak_webtak_port":         "tak.webtak_port",
	"tak_stream_port":         "tak.stream_port",
	"tak_auth_mode":           "tak.auth_mode",
	"tak_username":            "tak.username",
	"tak_password":            "tak.password",
	"tak_token":               "tak.token",
	"tak_cert_file":           "tak.cert_file",
	"tak_key_file":            "tak.key_file",
	"tak_p12_file":            "tak.p12_file",
	"tak_p12_password":        "tak.p12_password",
	"tak_connection_id":       "tak.connection_id",
	"tak_timeout":             "tak.timeout",
	"tak_requests_per_second": "tak.requests_per_second",
	"tak_burst":               "tak.burst",
	"tak_circuit_breaker":     "tak.circuit_breaker",

	"stream_enabled":         "stream.enabled",
	"stream_read_timeout":    "stream.read_timeout",
	"stream_reconnect_delay": "stream.reconnect_delay",
	"stream_callsign":        "stream.callsign",
	"stream_uid":             "stream.uid",
	"stream_track_ttl":       "stream.track_ttl",

	"sync_enabled":    "sync.enabled",
	"sync_interval":   "sync.interval",
	"sync_max_layers": "sync.max_layers",

	"store_path":      "store.path",
	"store_in_memory": "store.in_memory",

	"events_enabled": "events.enabled",
	"events_topic":   "events.topic",
	"nats_url":       "events.nats_url",

	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
