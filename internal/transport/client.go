// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// AuthChallengeFunc is invoked once after a 401 or 403 response. It should
// refresh the session (typically calling SetSessionToken) and report whether
// the failed request is worth retrying.
type AuthChallengeFunc func(ctx context.Context) bool

// Request describes one logical backend call.
//
// Path may carry a legacy embedded query ("posts?id=eq.1"); it is merged
// with Query, and Query wins for keys present in both. Headers override only
// their own keys.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    []byte
	Headers map[string]string
}

// Client performs REST calls against the configured backend.
//
// The client never retries on its own except for the single pass that
// follows a successful auth challenge. Retry policy belongs to callers.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *breaker

	mu              sync.RWMutex
	sessionToken    string
	onAuthChallenge AuthChallengeFunc
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthChallenge registers the 401/403 callback.
func WithAuthChallenge(fn AuthChallengeFunc) Option {
	return func(c *Client) { c.onAuthChallenge = fn }
}

// NewClient creates a client from the backend configuration.
// An empty BaseURL yields a client whose calls fail with ErrNotConfigured.
func NewClient(cfg *config.BackendConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		sessionToken: cfg.SessionToken,
		httpClient:   &http.Client{Timeout: timeout},
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if cfg.CircuitBreaker {
		c.breaker = newBreaker("backend-rest")
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetSessionToken replaces the bearer token used on subsequent requests.
func (c *Client) SetSessionToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionToken = token
}

// SetAuthChallengeHandler registers or clears the 401/403 callback.
func (c *Client) SetAuthChallengeHandler(fn AuthChallengeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAuthChallenge = fn
}

func (c *Client) authState() (string, AuthChallengeFunc) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionToken, c.onAuthChallenge
}

// Request performs one logical call and returns the 2xx response body.
func (c *Client) Request(ctx context.Context, req Request) ([]byte, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	target, err := buildURL(c.baseURL, req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	body, err := c.send(ctx, req, target)
	if err == nil {
		return body, nil
	}

	status, ok := StatusCode(err)
	if !ok || (status != http.StatusUnauthorized && status != http.StatusForbidden) {
		return nil, err
	}

	_, challenge := c.authState()
	if challenge == nil {
		metrics.TransportAuthChallenges.WithLabelValues("no_handler").Inc()
		return nil, err
	}
	if !challenge(ctx) {
		metrics.TransportAuthChallenges.WithLabelValues("refresh_failed").Inc()
		logging.Ctx(ctx).Warn().Int("status", status).Str("path", req.Path).Msg("Auth challenge declined, returning original failure")
		return nil, err
	}

	metrics.TransportAuthChallenges.WithLabelValues("retried").Inc()
	logging.Ctx(ctx).Debug().Str("path", req.Path).Msg("Session refreshed, retrying request once")
	return c.send(ctx, req, target)
}

// send performs a single round trip and classifies the result.
func (c *Client) send(ctx context.Context, req Request, target string) ([]byte, error) {
	if c.limiter != nil {
		start := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Op: "rate limit", Err: err}
		}
		metrics.TransportRateLimitWait.Observe(time.Since(start).Seconds())
	}

	if c.breaker == nil {
		return c.roundTrip(ctx, req, target)
	}
	return c.breaker.execute(func() ([]byte, error) {
		return c.roundTrip(ctx, req, target)
	})
}

func (c *Client) roundTrip(ctx context.Context, req Request, target string) ([]byte, error) {
	var reader io.Reader = http.NoBody
	if req.Body != nil {
		reader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, &InvalidURLError{Raw: target, Err: err}
	}
	c.applyHeaders(httpReq, req)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.RecordTransportRequest(req.Method, 0, time.Since(start))
		return nil, &TransportError{Op: req.Method + " " + req.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	metrics.RecordTransportRequest(req.Method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &TransportError{Op: "read body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.Ctx(ctx).Debug().
			Str("method", req.Method).
			Str("path", req.Path).
			Int("status", resp.StatusCode).
			Msg("Backend request rejected")
		return nil, &HTTPError{Status: resp.StatusCode, Body: truncateBody(body)}
	}
	return body, nil
}

// applyHeaders sets credentials and defaults, then lets caller headers
// override their own keys.
func (c *Client) applyHeaders(httpReq *http.Request, req Request) {
	token, _ := c.authState()

	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("apikey", c.apiKey)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
}

// String implements fmt.Stringer for logging.
func (c *Client) String() string {
	return fmt.Sprintf("transport.Client(%s)", c.baseURL)
}

// BreakerState returns the circuit breaker state, or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State()
}
