// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

/*
Package config provides centralized configuration management for TAKBridge.

Configuration is layered with koanf:

 1. Defaults: built-in values from defaultConfig()
 2. Config file: optional YAML (CONFIG_PATH, ./config.yaml, /etc/takbridge/config.yaml)
 3. Environment variables: highest priority, explicit mapping only

# Sections

  - tak: Server hostname, ports, authentication mode and credential material
  - stream: CoT streaming socket (read timeout, reconnect delay)
  - sync: Data-Mission reconciliation schedule and layer cap
  - store: Badger directory for data connection records and mission tokens
  - events: Watermill topic for framed CoT events (NATS URL with -tags nats)
  - server: health/status HTTP listener
  - logging: zerolog level and format

# Environment Variables

TAK Server:
  - TAK_HOST: Server hostname (required)
  - TAK_API_PORT / TAK_WEBTAK_PORT / TAK_STREAM_PORT: 8443 / 8446 / 8089
  - TAK_AUTH_MODE: password, token, certificate (default: certificate)
  - TAK_USERNAME, TAK_PASSWORD: password mode
  - TAK_TOKEN: token mode
  - TAK_CERT_FILE, TAK_KEY_FILE: PEM client certificate and key
  - TAK_P12_FILE, TAK_P12_PASSWORD: PKCS#12 bundle (alternative to PEM files)
  - TAK_CONNECTION_ID: local connection id used in creator UIDs (default: 1)

Sync:
  - SYNC_ENABLED, SYNC_INTERVAL (default: 5m), SYNC_MAX_LAYERS (default: 1)

Logging:
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json, console (default: json)

See envTransformFunc for the complete list.
*/
package config
