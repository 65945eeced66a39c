// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package middleware provides HTTP middleware for the local status API.

Every middleware has the chi signature func(http.Handler) http.Handler so it
can be mounted with r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders)

RequestID honours an upstream X-Request-ID header, otherwise generates a
UUID, and stores it both in the request context and in a request-scoped
zerolog logger so that logging.Ctx(r.Context()) carries request_id and
correlation_id.

PrometheusMetrics labels requests by chi route pattern rather than raw path
so that IDs in the URL do not explode label cardinality.
*/
package middleware
