// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTree(t *testing.T, cfg TreeConfig) *SupervisorTree {
	t.Helper()
	tree, err := NewSupervisorTree(quietLogger(), cfg)
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	return tree
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5 || cfg.FailureDecay != 30 {
		t.Errorf("threshold/decay = %v/%v, want 5/30", cfg.FailureThreshold, cfg.FailureDecay)
	}
	if cfg.FailureBackoff != 15*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("backoff/timeout = %v/%v, want 15s/10s", cfg.FailureBackoff, cfg.ShutdownTimeout)
	}
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree := newTestTree(t, TreeConfig{FailureBackoff: time.Second})

	if tree.Root() == nil {
		t.Fatal("Root() is nil")
	}
	if tree.config.FailureBackoff != time.Second {
		t.Errorf("explicit FailureBackoff overwritten: %v", tree.config.FailureBackoff)
	}
	if tree.config.FailureThreshold != 5 || tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("zero fields not defaulted: %+v", tree.config)
	}
}

func TestSupervisorTree_StartsEveryLayer(t *testing.T) {
	tree := newTestTree(t, TreeConfig{ShutdownTimeout: time.Second})

	flush := newFakeService("flush")
	stream := newFakeService("feed-stream")
	api := newFakeService("status-api")
	tree.AddPublishService(flush)
	tree.AddStreamService(stream)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for _, svc := range []*fakeService{flush, stream, api} {
		svc := svc
		waitFor(t, svc.name+" start", func() bool { return svc.starts.Load() >= 1 })
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}

	for _, svc := range []*fakeService{flush, stream, api} {
		if svc.stops.Load() != svc.starts.Load() {
			t.Errorf("%s: starts=%d stops=%d", svc.name, svc.starts.Load(), svc.stops.Load())
		}
	}
}

func TestSupervisorTree_RestartIsolatedToLayer(t *testing.T) {
	tree := newTestTree(t, TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	flaky := newFakeService("flush")
	flaky.failFirst(2)
	api := newFakeService("status-api")
	tree.AddPublishService(flaky)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitFor(t, "flaky restarts", func() bool { return flaky.starts.Load() >= 3 })
	if got := api.starts.Load(); got != 1 {
		t.Errorf("api layer started %d times, want 1", got)
	}

	cancel()
	<-errCh
}

func TestSupervisorTree_RemovePublishService(t *testing.T) {
	tree := newTestTree(t, TreeConfig{ShutdownTimeout: time.Second})

	refresh := newFakeService("feed-refresh")
	token := tree.AddPublishService(refresh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitFor(t, "start", func() bool { return refresh.starts.Load() == 1 })
	if err := tree.RemovePublishService(token); err != nil {
		t.Fatalf("RemovePublishService() error = %v", err)
	}
	waitFor(t, "stop", func() bool { return refresh.stops.Load() == 1 })

	time.Sleep(30 * time.Millisecond)
	if got := refresh.starts.Load(); got != 1 {
		t.Errorf("removed service restarted: starts = %d", got)
	}

	cancel()
	<-errCh
}

func TestSupervisorTree_ServeReturnsOnCancel(t *testing.T) {
	tree := newTestTree(t, TreeConfig{ShutdownTimeout: time.Second})
	tree.AddAPIService(newFakeService("status-api"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- tree.Serve(ctx) }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}
