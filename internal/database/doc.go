// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package database is the local practice library backed by DuckDB.
//
// It stores recorded sessions and the attachments staged for them, and
// serves as the attachment source for the flush engine: attachment rows
// carry metadata while the bytes stay in the file referenced by file_path.
// When history is enabled, every flush outcome is appended to flush_history.
//
// Files:
//   - database.go: connection lifecycle
//   - schema.go: table creation and versioned migrations
//   - library.go: sessions and attachments
//   - history.go: flush history
package database
