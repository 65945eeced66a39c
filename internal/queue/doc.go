// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package queue implements the durable publish queue.

A Queue holds at most one PublishPayload per post ID, in insertion order.
Re-enqueueing an ID merges into the queued entry in place (see
models.PublishPayload.Merge) so the entry keeps its original position.

Every mutation writes the complete snapshot through a Store before it
returns. Two stores are provided:

  - FileStore: a single JSON array file, replaced atomically
    (temp file, fsync, rename). A missing file is an empty queue. Files
    written by older clients as a bare array of UUID strings are upgraded
    to stub payloads on load.
  - BadgerStore: the same snapshot kept under one key in a BadgerDB
    database opened with synchronous writes.

Usage:

	store := queue.NewFileStore(cfg.Queue.Path)
	q, err := queue.New(store)
	if err != nil {
	    return err
	}
	if err := q.Enqueue(payload); err != nil {
	    return err
	}
*/
package queue
