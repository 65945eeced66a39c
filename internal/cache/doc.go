// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package cache provides the in-memory stores used by the sync pipeline.

Three independent caches with different lifetimes:

  - SignedURLCache: signed object URLs keyed by "bucket|path", each entry
    expiring at its own logical deadline.
  - MediaCache: bounded LRU of decoded media bytes (default 256 entries)
    keyed by the same composite key. Entries never expire; they are evicted
    by recency only.
  - IdentityCache: directory identities keyed by user ID. Writes always
    merge into the existing record and the cache is never cleared during
    the process lifetime, including across sign-out.

SignedURLs combines a SignedURLCache with a URLSigner so callers only mint a
URL when no unexpired one is cached.

All types are safe for concurrent use.
*/
package cache
