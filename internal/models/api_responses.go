// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package models

import "time"

// APIResponse is the envelope every status API endpoint returns.
//
// Status is "success" with Data populated, or "error" with Error populated:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"},
//	  "error": {"code": "NOT_FOUND", "message": "Post is not queued"}
//	}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Count       *int      `json:"count,omitempty"`
	Offline     bool      `json:"offline,omitempty"`
}

// APIError is a machine-readable error.
//
// Codes used by the status API: VALIDATION_ERROR, NOT_FOUND, CONFLICT,
// NOT_CONFIGURED, BACKEND_ERROR, INTERNAL_ERROR, RATE_LIMIT_EXCEEDED.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthStatus is returned by /healthz.
type HealthStatus struct {
	Status       string `json:"status"`
	Mode         string `json:"mode"`
	QueueDepth   int    `json:"queue_depth"`
	FlushRunning bool   `json:"flush_running"`
	Breaker      string `json:"breaker"`
	WSClients    int    `json:"ws_clients"`
	Uptime       string `json:"uptime"`
}

// FeedView is returned by GET /api/v1/feed.
type FeedView struct {
	Snapshot FeedSnapshot `json:"snapshot"`
	Posts    []PostRow    `json:"posts"`
}
