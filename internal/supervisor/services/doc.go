// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package services adapts Cadence components to suture.Service.

Each wrapper has a Serve(ctx) error method that blocks until ctx is
cancelled and a String method naming the service in supervisor logs.

  - FlushService runs the publish engine on an interval, with
    codeGROOVE-dev/retry backoff when a pass leaves failed items behind.
  - FeedRefreshService refreshes the feed store on an interval.
  - FeedStreamService runs the websocket hub together with the relay that
    feeds it snapshots.
  - HTTPServerService runs the status API with graceful shutdown.

Wrappers depend on small interfaces rather than concrete types so they can
be tested with fakes:

	flush := services.NewFlushService(engine, cfg.Flush)
	tree.AddPublishService(flush)
*/
package services
