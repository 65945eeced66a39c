// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/models"
	"github.com/tomtom215/cadence/internal/publish"
	"github.com/tomtom215/cadence/internal/queue"
	"github.com/tomtom215/cadence/internal/transport"
	"github.com/tomtom215/cadence/internal/websocket"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Health reports mode, queue depth and backend breaker state. The service
// is "degraded" while the breaker is open.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := models.HealthStatus{
		Status:  "healthy",
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Breaker: "disabled",
	}
	if h.deps.Engine != nil {
		status.Mode = string(h.deps.Engine.Mode())
		status.FlushRunning = h.deps.Engine.Running()
	}
	if h.deps.Queue != nil {
		status.QueueDepth = h.deps.Queue.Len()
	}
	if h.deps.Client != nil {
		status.Breaker = h.deps.Client.BreakerState()
	}
	if h.deps.Hub != nil {
		status.WSClients = h.deps.Hub.GetClientCount()
	}
	if status.Breaker == "open" {
		status.Status = "degraded"
	}
	respondData(w, http.StatusOK, status, start)
}

// ListQueue returns the queued payloads in flush order.
func (h *Handler) ListQueue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	items := h.deps.Queue.Snapshot()
	count := len(items)
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   items,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Count:       &count,
		},
	})
}

// EnqueuePayload validates and enqueues (or merges) one payload.
func (h *Handler) EnqueuePayload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var payload models.PublishPayload
	if err := decodeBody(w, r, &payload); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&payload); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	if err := h.deps.Queue.Enqueue(payload); err != nil {
		if errors.Is(err, queue.ErrNilID) {
			respondError(w, r, http.StatusBadRequest, codeValidation, "id is required", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, codeInternal, "Failed to persist queue", err)
		return
	}

	merged, _ := h.deps.Queue.Get(payload.ID)
	logging.Ctx(r.Context()).Debug().Str("post_id", payload.ID.String()).Msg("Payload enqueued via status API")
	respondData(w, http.StatusAccepted, merged, start)
}

// DequeuePayload removes a payload by post ID.
func (h *Handler) DequeuePayload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "id must be a UUID", nil)
		return
	}

	if err := h.deps.Queue.Dequeue(id); err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, codeNotFound, "Post is not queued", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, codeInternal, "Failed to persist queue", err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"id": id.String()}, start)
}

// Flush runs one flush pass and returns its report. Per-item failures are
// part of a successful response; only a pass that could not run is an error.
func (h *Handler) Flush(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), h.flushTimeout)
	defer cancel()

	report, err := h.deps.Engine.FlushNow(ctx)
	switch {
	case err == nil:
		respondData(w, http.StatusOK, report, start)
	case errors.Is(err, publish.ErrFlushInProgress):
		respondError(w, r, http.StatusConflict, codeConflict, "A flush is already running", nil)
	case errors.Is(err, transport.ErrNotConfigured), errors.Is(err, publish.ErrNoOwner):
		respondError(w, r, http.StatusServiceUnavailable, codeNotConfigured, err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status:   "error",
			Data:     report,
			Metadata: models.Metadata{Timestamp: time.Now().UTC()},
			Error:    &models.APIError{Code: codeUnavailable, Message: "Flush interrupted"},
		})
	default:
		respondError(w, r, http.StatusInternalServerError, codeInternal, "Flush failed", err)
	}
}

// LastFlush returns the most recent flush report.
func (h *Handler) LastFlush(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	report, ok := h.deps.Engine.LastReport()
	if !ok {
		respondError(w, r, http.StatusNotFound, codeNotFound, "No flush has completed yet", nil)
		return
	}
	respondData(w, http.StatusOK, report, start)
}

// FlushHistory lists recorded outcomes, newest first, optionally for one post.
func (h *Handler) FlushHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.History == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "Flush history is disabled", nil)
		return
	}

	postID := uuid.Nil
	if raw := r.URL.Query().Get("post_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, codeValidation, "post_id must be a UUID", nil)
			return
		}
		postID = parsed
	}
	limit := getIntParam(r, "limit", defaultHistoryLimit, 1, maxHistoryLimit)

	outcomes, err := h.deps.History.FlushHistory(r.Context(), postID, limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "Failed to read flush history", err)
		return
	}
	respondData(w, http.StatusOK, outcomes, start)
}

// Feed returns the current feed snapshot with the visible posts.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondData(w, http.StatusOK, models.FeedView{
		Snapshot: h.deps.Feed.Snapshot(),
		Posts:    h.deps.Feed.Posts(),
	}, start)
}

// ResolveDirectory resolves ?ids=a,b. refresh=true bypasses the cache.
func (h *Handler) ResolveDirectory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Directory == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "Directory is disabled", nil)
		return
	}

	ids := parseCommaSeparated(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		respondError(w, r, http.StatusBadRequest, codeValidation, "ids is required", nil)
		return
	}
	refresh := r.URL.Query().Get("refresh") == "true"

	accounts, err := h.deps.Directory.ResolveAccounts(r.Context(), ids, refresh)
	if err != nil {
		status, code := backendStatus(err)
		respondError(w, r, status, code, "Directory lookup failed", err)
		return
	}
	respondData(w, http.StatusOK, accounts, start)
}

// SearchDirectory searches the backend directory, falling back to the
// offline index when the backend cannot be reached.
func (h *Handler) SearchDirectory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Directory == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "Directory is disabled", nil)
		return
	}

	rows, local, err := h.deps.Directory.SearchWithFallback(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		status, code := backendStatus(err)
		respondError(w, r, status, code, "Directory search failed", err)
		return
	}
	if rows == nil {
		rows = []models.DirectoryIdentity{}
	}
	count := len(rows)
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   rows,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Count:       &count,
			Offline:     local,
		},
	})
}

// Stream upgrades to a websocket carrying feed snapshots.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.deps.Hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "Stream is disabled", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.deps.Hub, conn)
	select {
	case h.deps.Hub.Register <- client:
		client.Start()
	case <-r.Context().Done():
		_ = conn.Close()
	}
}

// backendStatus maps a transport failure to an HTTP status and error code.
func backendStatus(err error) (int, string) {
	switch {
	case errors.Is(err, transport.ErrNotConfigured):
		return http.StatusServiceUnavailable, codeNotConfigured
	case transport.IsTransport(err):
		return http.StatusBadGateway, codeBackend
	}
	if _, ok := transport.StatusCode(err); ok {
		return http.StatusBadGateway, codeBackend
	}
	return http.StatusInternalServerError, codeInternal
}
