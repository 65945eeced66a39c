// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/cadence/internal/models"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if err := c.validateQueue(); err != nil {
		return err
	}

	if err := c.validateFlush(); err != nil {
		return err
	}

	if err := c.validateLibrary(); err != nil {
		return err
	}

	if err := c.validateFeed(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateBackend validates mode gating and, for network modes, the base URL.
// Local mode needs nothing else.
func (c *Config) validateBackend() error {
	switch c.Backend.Mode {
	case ModeLocal:
		return nil
	case ModeHosted, ModeSelfHosted:
	default:
		return fmt.Errorf("BACKEND_MODE must be one of local, hosted, self_hosted, got: %s", c.Backend.Mode)
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_URL is required when BACKEND_MODE=%s", c.Backend.Mode)
	}
	if err := validateHTTPURL(c.Backend.BaseURL, "BACKEND_URL"); err != nil {
		return err
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive, got: %v", c.Backend.Timeout)
	}
	if c.Backend.RateLimit < 0 {
		return fmt.Errorf("BACKEND_RATE_LIMIT must be >= 0, got: %v", c.Backend.RateLimit)
	}
	if c.Backend.RateLimit > 0 && c.Backend.RateBurst < 1 {
		return fmt.Errorf("BACKEND_RATE_BURST must be >= 1 when rate limiting is enabled, got: %d", c.Backend.RateBurst)
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Provider {
	case StorageProviderREST, StorageProviderGCS:
	default:
		return fmt.Errorf("STORAGE_PROVIDER must be 'rest' or 'gcs', got: %s", c.Storage.Provider)
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return fmt.Errorf("STORAGE_BUCKET is required")
	}
	if c.Storage.SignedURLTTL < 0 {
		return fmt.Errorf("SIGNED_URL_TTL must be >= 0, got: %v", c.Storage.SignedURLTTL)
	}
	if c.Storage.MediaCacheSize < 1 {
		return fmt.Errorf("MEDIA_CACHE_SIZE must be at least 1, got: %d", c.Storage.MediaCacheSize)
	}
	return nil
}

func (c *Config) validateQueue() error {
	switch c.Queue.Store {
	case QueueStoreFile:
		if c.Queue.Path == "" {
			return fmt.Errorf("QUEUE_PATH is required when QUEUE_STORE=file")
		}
	case QueueStoreBadger:
		if c.Queue.BadgerDir == "" {
			return fmt.Errorf("QUEUE_BADGER_DIR is required when QUEUE_STORE=badger")
		}
	default:
		return fmt.Errorf("QUEUE_STORE must be 'file' or 'badger', got: %s", c.Queue.Store)
	}
	return nil
}

func (c *Config) validateFlush() error {
	if c.Flush.Interval < time.Second {
		return fmt.Errorf("FLUSH_INTERVAL must be at least 1s, got: %v", c.Flush.Interval)
	}
	if c.Flush.RetryAttempts < 1 {
		return fmt.Errorf("FLUSH_RETRY_ATTEMPTS must be at least 1, got: %d", c.Flush.RetryAttempts)
	}
	if c.Flush.RetryMaxDelay < c.Flush.RetryDelay {
		return fmt.Errorf("FLUSH_RETRY_MAX_DELAY (%v) must not be less than FLUSH_RETRY_DELAY (%v)",
			c.Flush.RetryMaxDelay, c.Flush.RetryDelay)
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if c.Library.Enabled && c.Library.Path == "" {
		return fmt.Errorf("LIBRARY_PATH is required when LIBRARY_ENABLED=true")
	}
	return nil
}

func (c *Config) validateFeed() error {
	switch c.Feed.Scope {
	case models.FeedScopeMine, models.FeedScopeAll:
	default:
		return fmt.Errorf("FEED_SCOPE must be 'mine' or 'all', got: %s", c.Feed.Scope)
	}
	if c.Feed.RefreshInterval < 0 {
		return fmt.Errorf("FEED_REFRESH_INTERVAL must not be negative, got: %v", c.Feed.RefreshInterval)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if !c.API.Enabled {
		return nil
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got: %d", c.API.Port)
	}
	if c.API.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be >= 0, got: %d", c.API.RateLimitReqs)
	}
	if c.API.RateLimitReqs > 0 && c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, got: %s", c.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got: %s", c.Logging.Format)
	}
	return nil
}
