// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package publish drains the publish queue against the REST backend.

FlushNow takes a snapshot of the queue and processes each item in order,
one at a time:

 1. POST /rest/v1/posts with Prefer: return=minimal. A 409 whose body
    identifies a duplicate key counts as success, so retrying a publish
    that already reached the backend is safe.
 2. PATCH /rest/v1/posts?id=eq.<id> with the mutable fields, including
    is_public. This runs on the duplicate path too, so visibility and
    metadata converge on every retry. A stub sends is_public alone.
 3. When the payload references a session, upload every non-private local
    attachment to <owner>/<postID>/<attachmentID>.<ext>. Any upload failure
    aborts the item.
 4. PATCH the post's attachment list, sending [] when nothing was uploaded.
 5. Dequeue the item, unless it was edited while this pass ran. An edited
    entry stays queued for the next pass.

Any other failure leaves the item queued and the engine moves on to the
next one. The error is handed to the ErrorRecorder (the feed store) so it
is observable without inspecting logs.

In local mode FlushNow does nothing. Concurrent calls do not overlap: a
call made while another is running returns ErrFlushInProgress.
*/
package publish
