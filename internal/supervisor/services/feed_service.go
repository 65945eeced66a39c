// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"time"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/models"
)

// FeedFetcher matches feed.Fetcher.
type FeedFetcher interface {
	FetchMine(ctx context.Context, owner string) ([]models.PostRow, error)
	FetchAll(ctx context.Context, owner string) ([]models.PostRow, error)
}

// FeedRefreshService reloads the feed on an interval. Fetch failures are
// recorded by the feed store itself and only logged here.
type FeedRefreshService struct {
	fetcher  FeedFetcher
	owner    string
	scope    models.FeedScope
	interval time.Duration
	name     string
}

// NewFeedRefreshService creates the service.
func NewFeedRefreshService(fetcher FeedFetcher, owner string, cfg config.FeedConfig) *FeedRefreshService {
	scope := cfg.Scope
	if scope == "" {
		scope = models.FeedScopeAll
	}
	return &FeedRefreshService{
		fetcher:  fetcher,
		owner:    owner,
		scope:    scope,
		interval: cfg.RefreshInterval,
		name:     "feed-refresh",
	}
}

// Serve implements suture.Service. It refreshes once immediately, then on
// every tick. A zero interval disables refreshing.
func (s *FeedRefreshService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		logging.Ctx(ctx).Debug().Msg("Feed refresh disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *FeedRefreshService) refresh(ctx context.Context) {
	var (
		rows []models.PostRow
		err  error
	)
	if s.scope == models.FeedScopeMine {
		rows, err = s.fetcher.FetchMine(ctx, s.owner)
	} else {
		rows, err = s.fetcher.FetchAll(ctx, s.owner)
	}
	if err != nil {
		if ctx.Err() == nil {
			logging.Ctx(ctx).Warn().Err(err).Str("scope", string(s.scope)).Msg("Feed refresh failed")
		}
		return
	}
	logging.Ctx(ctx).Debug().Int("posts", len(rows)).Str("scope", string(s.scope)).Msg("Feed refreshed")
}

// String implements fmt.Stringer for supervisor logs.
func (s *FeedRefreshService) String() string {
	return s.name
}
