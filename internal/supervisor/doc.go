// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package supervisor runs Cadence's long-lived services under suture v4.

Services are grouped into three child supervisors so a crash in one layer
restarts only that layer:

	cadence
	├── publish-layer
	│   ├── flush         (periodic queue flush with retry backoff)
	│   └── feed-refresh  (periodic feed fetch)
	├── stream-layer
	│   └── feed-stream   (websocket hub and feed relay)
	└── api-layer
	    └── status-api    (loopback HTTP server)

Supervisor events are logged through sutureslog into the zerolog-backed
slog logger from the logging package:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}
	tree.AddPublishService(services.NewFlushService(engine, cfg.Flush))
	tree.AddStreamService(services.NewFeedStreamService(hub, relay))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.API.ShutdownTimeout))
	err = tree.Serve(ctx)

Serve blocks until ctx is cancelled. Services that do not stop within
ShutdownTimeout are listed by UnstoppedServiceReport.
*/
package supervisor
