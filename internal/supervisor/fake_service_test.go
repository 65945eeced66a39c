// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// fakeService runs until cancelled, optionally failing the first N starts.
type fakeService struct {
	name     string
	starts   atomic.Int32
	stops    atomic.Int32
	failures atomic.Int32

	mu      sync.Mutex
	failFor int32
}

func newFakeService(name string) *fakeService {
	return &fakeService{name: name}
}

func (f *fakeService) Serve(ctx context.Context) error {
	f.starts.Add(1)
	defer f.stops.Add(1)

	f.mu.Lock()
	failFor := f.failFor
	f.mu.Unlock()

	if failFor > 0 && f.failures.Add(1) <= failFor {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

// failFirst makes the first n starts return an error.
func (f *fakeService) failFirst(n int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFor = n
}

func (f *fakeService) String() string { return f.name }
