// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

/*
Package datasync keeps a TAK Mission in step with a local Data Connection.

Reconciler.Sync is stateless and re-entrant. Every pass re-reads the
Server, so a run that fails half way (a Mission created but a layer not
yet) is completed by the next one:

 1. Activate the caller's groups if any are inactive (one bulk update).
 2. Fetch the Mission by name with the stored Mission token.
 3. Mission present and sync disabled: delete it and stop.
 4. Mission absent and sync disabled: stop. Sync enabled: create it
    (groups default to every group name), persist the returned token,
    subscribe the connection's client UID when known and re-fetch.
 5. Create a GROUP layer "layer-<id>" for each local layer (up to the
    configured cap) that the Mission does not already have. Existing
    layers are never changed.

Sync never retries. Concurrent calls for the same Data Connection must be
serialized by the caller.
*/
package datasync
