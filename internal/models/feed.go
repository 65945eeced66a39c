// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package models

import "time"

// FeedScope selects which posts a fetch covers.
type FeedScope string

const (
	FeedScopeMine FeedScope = "mine"
	FeedScopeAll  FeedScope = "all"
)

// FeedSnapshot is a point-in-time copy of the feed fetch diagnostics.
type FeedSnapshot struct {
	IsFetching   bool       `json:"is_fetching"`
	LastError    string     `json:"last_error,omitempty"`
	LastFetchAt  *time.Time `json:"last_fetch_at,omitempty"`
	OwnerKey     string     `json:"owner_key,omitempty"`
	Scope        FeedScope  `json:"scope,omitempty"`
	TargetOwners []string   `json:"target_owners,omitempty"`

	RawCount  int `json:"raw_count"`
	MineCount int `json:"mine_count"`
	AllCount  int `json:"all_count"`

	RawSample  []string `json:"raw_sample,omitempty"`
	MineSample []string `json:"mine_sample,omitempty"`
	AllSample  []string `json:"all_sample,omitempty"`

	KnownAuthors   int    `json:"known_authors"`
	LastFlushError string `json:"last_flush_error,omitempty"`
}
