// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"time"

	"github.com/tomtom215/cadence/internal/models"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables (in that order of precedence).
//
// Configuration Categories:
//
//  1. Backend: mode gating, REST base URL, credentials, rate limits
//  2. Storage: object storage provider, bucket, signed URL lifetime, media cache
//  3. Queue and Flush: durable publish queue location and background flush cadence
//  4. Library: local DuckDB session/attachment store
//  5. Directory, Feed, API, Logging
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Backend   BackendConfig   `koanf:"backend"`
	Storage   StorageConfig   `koanf:"storage"`
	Queue     QueueConfig     `koanf:"queue"`
	Flush     FlushConfig     `koanf:"flush"`
	Library   LibraryConfig   `koanf:"library"`
	Directory DirectoryConfig `koanf:"directory"`
	Feed      FeedConfig      `koanf:"feed"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// BackendMode selects whether the pipeline talks to a backend at all.
type BackendMode string

const (
	// ModeLocal keeps everything on device; flush is a no-op.
	ModeLocal BackendMode = "local"

	// ModeHosted talks to the managed backend.
	ModeHosted BackendMode = "hosted"

	// ModeSelfHosted talks to a user-operated backend.
	ModeSelfHosted BackendMode = "self_hosted"
)

// NetworkEnabled reports whether the mode performs network work.
func (m BackendMode) NetworkEnabled() bool {
	return m == ModeHosted || m == ModeSelfHosted
}

// BackendConfig holds the REST backend connection settings.
type BackendConfig struct {
	Mode           BackendMode   `koanf:"mode"`
	BaseURL        string        `koanf:"base_url"`
	APIKey         string        `koanf:"api_key"`
	SessionToken   string        `koanf:"session_token"`
	OwnerUserID    string        `koanf:"owner_user_id"`
	Timeout        time.Duration `koanf:"timeout"`
	RateLimit      float64       `koanf:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst      int           `koanf:"rate_burst"`
	CircuitBreaker bool          `koanf:"circuit_breaker"`
}

// Object storage providers.
const (
	StorageProviderREST = "rest"
	StorageProviderGCS  = "gcs"
)

// StorageConfig holds object storage settings for attachments.
type StorageConfig struct {
	Provider           string        `koanf:"provider"`
	Bucket             string        `koanf:"bucket"`
	SignedURLTTL       time.Duration `koanf:"signed_url_ttl"`
	MediaCacheSize     int           `koanf:"media_cache_size"`
	GCSCredentialsFile string        `koanf:"gcs_credentials_file"`
}

// Queue store backends.
const (
	QueueStoreFile   = "file"
	QueueStoreBadger = "badger"
)

// QueueConfig holds publish queue persistence settings.
type QueueConfig struct {
	Store     string `koanf:"store"`
	Path      string `koanf:"path"`
	BadgerDir string `koanf:"badger_dir"`
}

// FlushConfig holds background flush settings.
type FlushConfig struct {
	Interval      time.Duration `koanf:"interval"`
	OnStartup     bool          `koanf:"on_startup"`
	RetryAttempts uint          `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
	RetryMaxDelay time.Duration `koanf:"retry_max_delay"`
}

// LibraryConfig holds the local session/attachment store settings.
type LibraryConfig struct {
	Enabled        bool   `koanf:"enabled"`
	Path           string `koanf:"path"`
	HistoryEnabled bool   `koanf:"history_enabled"`
}

// DirectoryConfig holds directory resolution settings.
type DirectoryConfig struct {
	IndexEnabled bool `koanf:"index_enabled"`
}

// FeedConfig holds background feed refresh settings.
// A zero RefreshInterval disables the refresh loop.
type FeedConfig struct {
	RefreshInterval time.Duration    `koanf:"refresh_interval"`
	Scope           models.FeedScope `koanf:"scope"`
}

// APIConfig holds the loopback status API settings.
type APIConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_requests"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
