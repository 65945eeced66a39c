// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package logging provides zerolog-based structured logging for Cadence.
//
// A single global logger is configured once at startup:
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json", // or "console"
//	})
//
//	logging.Info().Int("queued", n).Msg("Queue loaded")
//	logging.Error().Err(err).Msg("Flush failed")
//
// # Context
//
// Flush passes and status API requests carry a correlation ID and may carry a
// request-scoped logger. Ctx returns the context logger with the correlation
// ID attached, falling back to the global logger:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Str("post_id", id).Msg("Post created")
//
// # slog
//
// NewSlogLogger returns a *slog.Logger that writes through zerolog. The
// supervisor tree uses it for sutureslog events. Groups become dotted key
// prefixes.
//
// # Tests
//
// NewTestLogger writes JSON to any io.Writer. SetLogger swaps the global
// logger so output can be asserted on.
package logging
