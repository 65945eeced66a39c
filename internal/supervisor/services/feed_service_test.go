// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/feed"
	"github.com/tomtom215/cadence/internal/models"
)

type fakeFeedFetcher struct {
	mu     sync.Mutex
	mine   []string
	all    []string
	err    error
	called chan struct{}
}

func newFakeFeedFetcher() *fakeFeedFetcher {
	return &fakeFeedFetcher{called: make(chan struct{}, 16)}
}

func (f *fakeFeedFetcher) record(list *[]string, owner string) ([]models.PostRow, error) {
	f.mu.Lock()
	*list = append(*list, owner)
	err := f.err
	f.mu.Unlock()
	select {
	case f.called <- struct{}{}:
	default:
	}
	if err != nil {
		return nil, err
	}
	return []models.PostRow{{}}, nil
}

func (f *fakeFeedFetcher) FetchMine(ctx context.Context, owner string) ([]models.PostRow, error) {
	return f.record(&f.mine, owner)
}

func (f *fakeFeedFetcher) FetchAll(ctx context.Context, owner string) ([]models.PostRow, error) {
	return f.record(&f.all, owner)
}

func (f *fakeFeedFetcher) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.mine), len(f.all)
}

func TestFeedRefreshService_Interface(t *testing.T) {
	var _ suture.Service = (*FeedRefreshService)(nil)
	var _ FeedFetcher = (*feed.Fetcher)(nil)
}

func TestFeedRefreshService_DefaultScope(t *testing.T) {
	svc := NewFeedRefreshService(newFakeFeedFetcher(), "owner-1", config.FeedConfig{})
	if svc.scope != models.FeedScopeAll {
		t.Errorf("scope = %q, want all", svc.scope)
	}
}

func TestFeedRefreshService_Scope(t *testing.T) {
	tests := []struct {
		scope    models.FeedScope
		wantMine int
		wantAll  int
	}{
		{models.FeedScopeMine, 1, 0},
		{models.FeedScopeAll, 0, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.scope), func(t *testing.T) {
			fetcher := newFakeFeedFetcher()
			svc := NewFeedRefreshService(fetcher, "owner-1", config.FeedConfig{Scope: tt.scope, RefreshInterval: time.Hour})

			svc.refresh(context.Background())

			mine, all := fetcher.counts()
			if mine != tt.wantMine || all != tt.wantAll {
				t.Errorf("mine=%d all=%d, want %d/%d", mine, all, tt.wantMine, tt.wantAll)
			}
		})
	}
}

func TestFeedRefreshService_RefreshesOnStartAndTick(t *testing.T) {
	fetcher := newFakeFeedFetcher()
	svc := NewFeedRefreshService(fetcher, "owner-1", config.FeedConfig{RefreshInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-fetcher.called:
		case <-time.After(time.Second):
			t.Fatalf("refresh %d did not run", i+1)
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestFeedRefreshService_ErrorsDoNotStopService(t *testing.T) {
	fetcher := newFakeFeedFetcher()
	fetcher.err = errors.New("backend down")
	svc := NewFeedRefreshService(fetcher, "", config.FeedConfig{RefreshInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-fetcher.called
	<-fetcher.called
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestFeedRefreshService_Disabled(t *testing.T) {
	fetcher := newFakeFeedFetcher()
	svc := NewFeedRefreshService(fetcher, "owner-1", config.FeedConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want deadline exceeded", err)
	}
	if mine, all := fetcher.counts(); mine+all != 0 {
		t.Errorf("disabled service fetched %d times", mine+all)
	}
}
