// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/cadence/internal/config"
)

// MiddlewareConfig holds CORS and rate limit settings.
type MiddlewareConfig struct {
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultMiddlewareConfig returns a loopback-friendly configuration.
// CORS origins default to empty, so browsers on other origins are refused.
func DefaultMiddlewareConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		CORSMaxAge:         600,

		RateLimitRequests: 120,
		RateLimitWindow:   time.Minute,
	}
}

// MiddlewareConfigFrom builds a MiddlewareConfig from the API section.
// A non-positive request limit disables rate limiting.
func MiddlewareConfigFrom(cfg *config.APIConfig) *MiddlewareConfig {
	mc := DefaultMiddlewareConfig()
	if cfg == nil {
		return mc
	}
	if cfg.CORSOrigins != nil {
		mc.CORSAllowedOrigins = cfg.CORSOrigins
	}
	if cfg.RateLimitReqs > 0 {
		mc.RateLimitRequests = cfg.RateLimitReqs
	} else {
		mc.RateLimitDisabled = true
	}
	if cfg.RateLimitWindow > 0 {
		mc.RateLimitWindow = cfg.RateLimitWindow
	}
	return mc
}

// Middleware builds chi-compatible middleware from a MiddlewareConfig.
type Middleware struct {
	config *MiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewMiddleware creates the middleware factory.
func NewMiddleware(mc *MiddlewareConfig) *Middleware {
	if mc == nil {
		mc = DefaultMiddlewareConfig()
	}
	return &Middleware{
		config: mc,
		cors: cors.Handler(cors.Options{
			AllowedOrigins:   mc.CORSAllowedOrigins,
			AllowedMethods:   mc.CORSAllowedMethods,
			AllowedHeaders:   mc.CORSAllowedHeaders,
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           mc.CORSMaxAge,
		}),
	}
}

// CORS returns the go-chi/cors handler.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns a per-IP httprate limiter, or a pass-through when
// limiting is disabled.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, codeRateLimited, "Too many requests", nil)
		}),
	)
}

// allowedOrigin reports whether origin may open a websocket. An empty
// Origin header (non-browser client) is always allowed.
func (m *Middleware) allowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	for _, o := range m.config.CORSAllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
