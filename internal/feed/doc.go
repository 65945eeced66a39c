// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package feed holds the process-wide published-feed state.
//
// Store records the outcome of the last feed fetch (counts, samples, error)
// and the author identities the directory service has resolved. Sign-out
// clears the fetch diagnostics but keeps the identities. Subscribers receive
// a fresh snapshot after every change.
//
// Fetcher issues the mine/all post queries and drives the Store.
package feed
