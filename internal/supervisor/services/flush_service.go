// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/publish"
	"github.com/tomtom215/cadence/internal/transport"
)

// Flusher matches publish.Engine.FlushNow.
type Flusher interface {
	FlushNow(ctx context.Context) (publish.Report, error)
}

// errItemsFailed marks a pass that left failed items in the queue.
var errItemsFailed = errors.New("flush left failed items queued")

// FlushService drains the publish queue on an interval. A pass that leaves
// failed items is retried with exponential backoff before the service waits
// for the next tick.
type FlushService struct {
	flusher   Flusher
	interval  time.Duration
	onStartup bool
	attempts  uint
	delay     time.Duration
	maxDelay  time.Duration
	name      string
}

// NewFlushService creates the service from the flush settings.
func NewFlushService(flusher Flusher, cfg config.FlushConfig) *FlushService {
	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	maxDelay := cfg.RetryMaxDelay
	if maxDelay < delay {
		maxDelay = delay
	}
	return &FlushService{
		flusher:   flusher,
		interval:  cfg.Interval,
		onStartup: cfg.OnStartup,
		attempts:  attempts,
		delay:     delay,
		maxDelay:  maxDelay,
		name:      "flush",
	}
}

// Serve implements suture.Service. A zero interval disables periodic
// flushes; the startup flush still runs when enabled.
func (f *FlushService) Serve(ctx context.Context) error {
	if f.onStartup {
		f.pass(ctx)
	}

	if f.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f.pass(ctx)
		}
	}
}

// pass runs one flush with retries. Errors are logged, never returned, so a
// misconfigured backend does not trip the supervisor.
func (f *FlushService) pass(ctx context.Context) {
	var (
		last    publish.Report
		lastErr error
	)
	_ = retry.Do(
		func() error {
			report, err := f.flusher.FlushNow(ctx)
			lastErr = err
			switch {
			case errors.Is(err, publish.ErrFlushInProgress):
				return nil
			case errors.Is(err, transport.ErrNotConfigured), errors.Is(err, publish.ErrNoOwner):
				return retry.Unrecoverable(err)
			case err != nil:
				return err
			}
			last = report
			if report.Failed > 0 {
				lastErr = fmt.Errorf("%w: %d of %d", errItemsFailed, report.Failed, report.Attempted)
				return lastErr
			}
			return nil
		},
		retry.Attempts(f.attempts),
		retry.Delay(f.delay),
		retry.MaxDelay(f.maxDelay),
		retry.MaxJitter(f.delay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			logging.Ctx(ctx).Info().Uint("attempt", n).Err(retryErr).Msg("Retrying flush")
		}),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
	)

	if errors.Is(lastErr, publish.ErrFlushInProgress) {
		lastErr = nil
	}

	switch err := lastErr; {
	case err == nil:
		if last.Attempted > 0 {
			logging.Ctx(ctx).Info().
				Int("published", last.Published).
				Int("duplicates", last.Duplicates).
				Int("skipped", last.Skipped).
				Msg("Flush completed")
		}
	case ctx.Err() != nil:
	case errors.Is(err, transport.ErrNotConfigured), errors.Is(err, publish.ErrNoOwner):
		logging.Ctx(ctx).Debug().Err(err).Msg("Flush skipped")
	default:
		logging.Ctx(ctx).Warn().Err(err).Int("failed", last.Failed).Msg("Flush gave up until next interval")
	}
}

// String implements fmt.Stringer for supervisor logs.
func (f *FlushService) String() string {
	return f.name
}
