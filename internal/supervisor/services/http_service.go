// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/cadence/internal/logging"
)

// HTTPServer is the part of *http.Server the service drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService keeps the status API listening until the api layer is
// stopped.
type HTTPServerService struct {
	server HTTPServer
	grace  time.Duration
}

// NewHTTPServerService wraps server. grace bounds Shutdown and defaults to 10s.
func NewHTTPServerService(server HTTPServer, grace time.Duration) *HTTPServerService {
	if grace <= 0 {
		grace = 10 * time.Second
	}
	return &HTTPServerService{server: server, grace: grace}
}

func (h *HTTPServerService) Serve(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		err := h.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("status api: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.grace)
	defer cancel()
	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status api shutdown: %w", err)
	}
	<-done
	logging.Info().Str("component", h.String()).Dur("grace", h.grace).Msg("Status API stopped")
	return ctx.Err()
}

func (h *HTTPServerService) String() string { return "status-api" }
