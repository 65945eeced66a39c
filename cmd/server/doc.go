// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package main runs the Cadence sync daemon.

The daemon owns the durable publish queue, drains it to the configured
backend on an interval, keeps a cached feed fresh, and serves a loopback
status API with a websocket stream of feed snapshots.

# Supervision

	cadence
	├── publish-layer
	│   ├── flush
	│   └── feed-refresh
	├── stream-layer
	│   └── feed-stream
	└── api-layer
	    └── status-api

In local mode the flush and feed services are not started; the queue and
status API still work so payloads can be staged offline.

# Configuration

Settings come from built-in defaults, an optional config.yaml and
environment variables, highest priority last. Common variables:

	BACKEND_MODE=hosted            local | hosted | self_hosted
	BACKEND_URL=https://...
	BACKEND_API_KEY=...
	BACKEND_OWNER_ID=...
	STORAGE_PROVIDER=rest          rest | gcs
	QUEUE_STORE=file               file | badger
	LIBRARY_ENABLED=true           DuckDB session and attachment library
	HTTP_PORT=7474

# Signals

SIGINT and SIGTERM cancel the supervisor tree. The status API drains
in-flight requests within api.shutdown_timeout, then the queue store,
library and directory index are closed.
*/
package main
