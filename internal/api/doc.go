// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package api serves the local status API.

The API is meant for loopback use by a companion UI or an operator: it
exposes the publish queue, lets callers trigger a flush, and surfaces feed
diagnostics, directory lookups and attachment reads. It never proxies credentials.

Routes:

	GET    /healthz                     health summary
	GET    /metrics                     Prometheus exposition
	GET    /api/v1/queue                queued payloads
	POST   /api/v1/queue                enqueue a payload (validated)
	DELETE /api/v1/queue/{id}           remove a queued payload
	POST   /api/v1/flush                run one flush pass and return its report
	GET    /api/v1/flush/last           report of the most recent pass
	GET    /api/v1/flush/history        recorded per-item outcomes
	GET    /api/v1/feed                 feed snapshot and visible posts
	GET    /api/v1/directory?ids=a,b    resolve directory identities
	GET    /api/v1/directory/search?q=  search, falling back to the offline index
	GET    /api/v1/media/url?path=      signed read URL for an attachment
	GET    /api/v1/media?path=          attachment bytes via the media cache
	GET    /api/v1/ws                   websocket stream of feed snapshots

Every JSON reply uses the models.APIResponse envelope.

Middleware stack (outermost first): request ID with request-scoped logger,
real IP, panic recovery, Prometheus, CORS, security headers, then a
per-IP httprate limit on /api/v1.
*/
package api
