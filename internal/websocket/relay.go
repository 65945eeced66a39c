// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package websocket

import (
	"context"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/models"
)

// SnapshotSource publishes feed snapshots. feed.Store implements it.
type SnapshotSource interface {
	Subscribe() (<-chan models.FeedSnapshot, func())
	Snapshot() models.FeedSnapshot
}

// FeedRelay forwards feed snapshots to a hub.
type FeedRelay struct {
	hub    *Hub
	source SnapshotSource
}

// NewFeedRelay creates a relay and installs the current snapshot as the
// hub's welcome message.
func NewFeedRelay(hub *Hub, source SnapshotSource) *FeedRelay {
	hub.SetWelcome(func() (Message, bool) {
		return Message{Type: MessageTypeFeedSnapshot, Data: source.Snapshot()}, true
	})
	return &FeedRelay{hub: hub, source: source}
}

// Serve forwards snapshots until ctx ends or the subscription closes.
func (r *FeedRelay) Serve(ctx context.Context) error {
	ch, cancel := r.source.Subscribe()
	defer cancel()

	logging.Debug().Str("component", "feed-relay").Msg("Feed relay started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-ch:
			if !ok {
				return nil
			}
			r.hub.BroadcastFeedSnapshot(snap)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (r *FeedRelay) String() string {
	return "feed-relay"
}
