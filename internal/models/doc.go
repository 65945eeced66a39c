// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package models defines the data structures shared across Cadence.

Key Components:

  - PublishPayload: one pending "publish a session as a post" intent, keyed by post ID
  - Activity: tagged variant for activity choices (Core(n) | Custom(name))
  - DirectoryIdentity: public profile fields resolvable for any backend user
  - Post wire types: typed request bodies for the REST backend (PostInsert,
    PostMetadataPatch, AttachmentsPatch, AttachmentRef, PostRow)
  - FeedSnapshot: observable feed fetch diagnostics

Merge Semantics:

PublishPayload.Merge implements the re-enqueue rule used by the publish queue:

  - an explicit IsPublic=false on the newer payload always wins
  - otherwise a newer payload carrying any metadata makes the post public
  - otherwise (stub re-enqueue) visibility is unchanged

All other fields take the newer non-nil value. NotesArePrivate only changes
when the newer payload carries notes.

DirectoryIdentity.Merge never clears a field: a nil field on the newer record
keeps the older value. This keeps author names stable while concurrent
refreshes race each other.

Wire Format:

JSON is encoded with github.com/goccy/go-json. Activity values are serialized
as "core:<n>" or "custom:<name>" only at the JSON boundary.
*/
package models
