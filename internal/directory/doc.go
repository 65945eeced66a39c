// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package directory resolves public account identities against the backend.
//
// Every write path merges into the shared IdentityCache rather than
// replacing entries, and every merged batch is forwarded to the feed store
// so author names update without a refetch. Identities seen by the service
// are also indexed in memory with bleve to serve searches while offline.
package directory
