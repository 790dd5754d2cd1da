// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

/*
Package cache holds in-memory state derived from the CoT stream.

Tracks is a table of the latest event per CoT uid. Each entry expires at
the event's stale time, or after the table's default TTL when the event
carries none. Expired entries are invisible to readers immediately and are
swept from memory by Serve, which runs as a supervised service.

Tracks implements the stream service's publisher interface, so it can sit
next to the event bus on the same stream:

	tracks := cache.NewTracks(5 * time.Minute)
	tree.AddStreamService(tracks)
	svc := services.NewStreamService(client, services.Publishers{bus, tracks}, delay)

Protocol-internal events (ping, connection-ack, version-info) and events
without a uid are not tracked.

# Thread Safety

All methods are safe for concurrent use. Readers take a read lock; the
sweep and writers take the write lock. Stats are kept under their own
mutex so that reporting never blocks the stream reader.
*/
package cache
