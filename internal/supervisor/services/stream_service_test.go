// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// fakeRunner runs until its context ends, or returns failWith once fail is
// closed.
type fakeRunner struct {
	runs     atomic.Int32
	started  chan struct{}
	fail     chan struct{}
	failWith error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{started: make(chan struct{}, 4), fail: make(chan struct{})}
}

func (f *fakeRunner) run(ctx context.Context) error {
	f.runs.Add(1)
	select {
	case f.started <- struct{}{}:
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.fail:
		return f.failWith
	}
}

func (f *fakeRunner) RunWithContext(ctx context.Context) error { return f.run(ctx) }
func (f *fakeRunner) Serve(ctx context.Context) error          { return f.run(ctx) }

func waitStarted(t *testing.T, f *fakeRunner) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(time.Second):
		t.Fatal("runner not started")
	}
}

func TestFeedStreamService_Interface(t *testing.T) {
	var _ suture.Service = (*FeedStreamService)(nil)
	if got := NewFeedStreamService(newFakeRunner(), nil).String(); got != "feed-stream" {
		t.Errorf("String() = %q", got)
	}
}

func TestFeedStreamService_HubOnly(t *testing.T) {
	hub := newFakeRunner()
	svc := NewFeedStreamService(hub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	waitStarted(t, hub)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestFeedStreamService_CancelStopsBoth(t *testing.T) {
	hub, relay := newFakeRunner(), newFakeRunner()
	svc := NewFeedStreamService(hub, relay)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	waitStarted(t, hub)
	waitStarted(t, relay)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestFeedStreamService_RelayFailureStopsHub(t *testing.T) {
	hub, relay := newFakeRunner(), newFakeRunner()
	relay.failWith = errors.New("source closed")
	svc := NewFeedStreamService(hub, relay)

	done := make(chan error, 1)
	go func() { done <- svc.Serve(context.Background()) }()
	waitStarted(t, hub)
	waitStarted(t, relay)
	close(relay.fail)

	select {
	case err := <-done:
		if !errors.Is(err, relay.failWith) {
			t.Errorf("Serve() error = %v, want relay error", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after relay failure")
	}
}

func TestFeedStreamService_CleanStopIsError(t *testing.T) {
	hub, relay := newFakeRunner(), newFakeRunner()
	svc := NewFeedStreamService(hub, relay)

	done := make(chan error, 1)
	go func() { done <- svc.Serve(context.Background()) }()
	waitStarted(t, hub)
	waitStarted(t, relay)
	close(hub.fail)

	err := <-done
	if err == nil || !strings.Contains(err.Error(), "stopped unexpectedly") {
		t.Errorf("Serve() error = %v, want unexpected stop", err)
	}
}

func TestFeedStreamService_RestartedBySupervisor(t *testing.T) {
	hub, relay := newFakeRunner(), newFakeRunner()
	relay.failWith = errors.New("boom")
	svc := NewFeedStreamService(hub, relay)

	sup := suture.New("test", suture.Spec{FailureBackoff: 10 * time.Millisecond})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := sup.ServeBackground(ctx)

	waitStarted(t, hub)
	waitStarted(t, relay)
	close(relay.fail)

	// Second start proves the supervisor restarted the pair.
	waitStarted(t, hub)
	cancel()
	<-errCh

	if hub.runs.Load() < 2 {
		t.Errorf("hub runs = %d, want at least 2", hub.runs.Load())
	}
}
