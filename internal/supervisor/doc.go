// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

/*
Package supervisor runs the long-lived parts of TAKBridge under a suture v4
tree.

	root ("takbridge")
	├── stream-layer
	│   ├── cache.Tracks sweep
	│   └── StreamService (one per configured stream)
	├── sync-layer
	│   └── ReconcileService
	└── api-layer
	    └── HTTPServerService

Each layer restarts independently: a stream that keeps failing backs off
without stopping reconciliation or the status endpoints. Supervisor events
are logged through sutureslog into the zerolog logger:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddStreamService(services.NewStreamService(client, bus, 5*time.Second))
	tree.AddSyncService(services.NewReconcileService(store, reconciler, time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
