// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package websocket streams feed diagnostics and flush results to connected
status clients.

A Hub owns the set of clients and fans messages out to them. Client wraps a
gorilla/websocket connection with a read pump (ping/pong and disconnect
detection) and a write pump (JSON messages plus keepalive pings).

FeedRelay bridges a feed snapshot subscription to the hub so that every
published models.FeedSnapshot reaches all clients as a "feed_snapshot"
message. Both Hub.RunWithContext and FeedRelay.Serve block until their
context ends; the supervisor runs them together as the feed-stream service.

Message envelope:

	{"type": "feed_snapshot", "data": {...}}
	{"type": "flush_completed", "data": {...}}
	{"type": "pong", "data": null}

New clients receive the most recent feed snapshot immediately after they
register.
*/
package websocket
