// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

/*
Package main is the entry point for the TAKBridge daemon.

TAKBridge keeps a local application connected to a TAK Server. It holds a
reconnecting CoT stream open, hands every framed event to a Watermill
topic, and reconciles locally stored Data Connections with their remote
Missions on a fixed interval.

# Application Architecture

	RootSupervisor ("takbridge")
	├── StreamSupervisor ("stream-layer")
	│   ├── track-cache (optional, stream.enabled)
	│   └── stream-<connection id> (optional, stream.enabled)
	├── SyncSupervisor ("sync-layer")
	│   └── reconcile-scheduler (optional, sync.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (/healthz, /readyz, /metrics, /api/status, /api/tracks, /api/sync/{id})

Component initialization order:

 1. Configuration: Koanf v2 with defaults, an optional YAML file and environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Store: BadgerDB holding Data Connections, layers and subscriber UIDs
 4. Management Client: password, token or certificate auth
 5. Event bus: Watermill GoChannel, or NATS JetStream with -tags nats
 6. Stream client: mutual-TLS CoT socket
 7. Supervisor Tree: Suture v4 process supervision
 8. HTTP Server: Chi router with rate limiting

# Configuration

The config file is taken from -config, CONFIG_PATH, or ./config.yaml.
Environment variables override it:

	TAK_HOST=tak.example.com
	TAK_AUTH_MODE=certificate
	TAK_P12_FILE=/etc/takbridge/bridge.p12
	TAK_P12_PASSWORD=atakatak
	STREAM_ENABLED=true
	SYNC_INTERVAL=1m
	STORE_PATH=/var/lib/takbridge

# Build Tags

	go build ./cmd/server               # events on an in-process GoChannel
	go build -tags nats ./cmd/server    # events on NATS JetStream

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops every
layer, the HTTP server drains for up to its shutdown timeout, and the
store and event bus are closed last.
*/
package main
