// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cadence/internal/middleware"
)

// NewRouter wires the status API routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(h.middleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, codeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.middleware.RateLimit())

		// The websocket route sits outside SecurityHeaders so the upgrade
		// response carries only what the upgrader writes.
		r.Get("/ws", h.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.SecurityHeaders)

			r.Route("/queue", func(r chi.Router) {
				r.Get("/", h.ListQueue)
				r.Post("/", h.EnqueuePayload)
				r.Delete("/{id}", h.DequeuePayload)
			})

			r.Route("/flush", func(r chi.Router) {
				r.Post("/", h.Flush)
				r.Get("/last", h.LastFlush)
				r.Get("/history", h.FlushHistory)
			})

			r.Get("/feed", h.Feed)

			r.Route("/directory", func(r chi.Router) {
				r.Get("/", h.ResolveDirectory)
				r.Get("/search", h.SearchDirectory)
			})

			r.Route("/media", func(r chi.Router) {
				r.Get("/url", h.MediaURL)
				r.Get("/", h.MediaContent)
			})
		})
	})

	return r
}
