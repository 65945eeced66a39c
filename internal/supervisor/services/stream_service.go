// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"errors"
	"fmt"
)

// ContextHub matches websocket.Hub.RunWithContext.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// Relay matches websocket.FeedRelay.Serve.
type Relay interface {
	Serve(ctx context.Context) error
}

// FeedStreamService runs the websocket hub and the feed relay as one unit.
// If either stops, the other is cancelled and the service returns so the
// supervisor restarts both together.
type FeedStreamService struct {
	hub   ContextHub
	relay Relay
	name  string
}

// NewFeedStreamService creates the service. relay may be nil.
func NewFeedStreamService(hub ContextHub, relay Relay) *FeedStreamService {
	return &FeedStreamService{hub: hub, relay: relay, name: "feed-stream"}
}

// Serve implements suture.Service.
func (s *FeedStreamService) Serve(ctx context.Context) error {
	if s.relay == nil {
		return s.hub.RunWithContext(ctx)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	hubErr := make(chan error, 1)
	relayErr := make(chan error, 1)
	go func() { hubErr <- s.hub.RunWithContext(runCtx) }()
	go func() { relayErr <- s.relay.Serve(runCtx) }()

	var first error
	select {
	case first = <-hubErr:
		cancel()
		<-relayErr
	case first = <-relayErr:
		cancel()
		<-hubErr
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if first == nil || errors.Is(first, context.Canceled) {
		return fmt.Errorf("%s: component stopped unexpectedly", s.name)
	}
	return fmt.Errorf("%s: %w", s.name, first)
}

// String implements fmt.Stringer for supervisor logs.
func (s *FeedStreamService) String() string {
	return s.name
}
