// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/cadence/internal/directory"
	"github.com/tomtom215/cadence/internal/feed"
	"github.com/tomtom215/cadence/internal/models"
	"github.com/tomtom215/cadence/internal/publish"
	"github.com/tomtom215/cadence/internal/queue"
	"github.com/tomtom215/cadence/internal/transport"
	"github.com/tomtom215/cadence/internal/websocket"
)

// HistoryReader reads recorded flush outcomes. database.DB implements it.
type HistoryReader interface {
	FlushHistory(ctx context.Context, postID uuid.UUID, limit int) ([]models.FlushOutcome, error)
}

// Deps are the components the handlers operate on. Directory, Hub, History
// and Media may be nil; their endpoints then answer 503.
type Deps struct {
	Queue     *queue.Queue
	Engine    *publish.Engine
	Feed      *feed.Store
	Directory *directory.Service
	Hub       *websocket.Hub
	Client    *transport.Client
	History   HistoryReader
	Media     *Media
}

// Handler serves the status API.
type Handler struct {
	deps       Deps
	middleware *Middleware
	upgrader   gorillaws.Upgrader
	startTime  time.Time

	flushTimeout time.Duration
}

// NewHandler creates a handler. mw supplies CORS origins for the websocket
// origin check.
func NewHandler(deps Deps, mw *Middleware) *Handler {
	if mw == nil {
		mw = NewMiddleware(nil)
	}
	h := &Handler{
		deps:         deps,
		middleware:   mw,
		startTime:    time.Now(),
		flushTimeout: 5 * time.Minute,
	}
	h.upgrader = gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			return mw.allowedOrigin(r.Header.Get("Origin"))
		},
	}
	return h
}
