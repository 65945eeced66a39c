// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/cadence/internal/models"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cadence/config.yaml",
	"/etc/cadence/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all defaults applied.
func defaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Mode:           ModeLocal, // nothing leaves the device until a backend is configured
			Timeout:        30 * time.Second,
			RateLimit:      10,
			RateBurst:      20,
			CircuitBreaker: true,
		},
		Storage: StorageConfig{
			Provider:       StorageProviderREST,
			Bucket:         "attachments",
			SignedURLTTL:   time.Hour,
			MediaCacheSize: 256,
		},
		Queue: QueueConfig{
			Store:     QueueStoreFile,
			Path:      "/data/cadence/publish_queue.json",
			BadgerDir: "/data/cadence/queue",
		},
		Flush: FlushConfig{
			Interval:      5 * time.Minute,
			OnStartup:     true,
			RetryAttempts: 3,
			RetryDelay:    2 * time.Second,
			RetryMaxDelay: time.Minute,
		},
		Library: LibraryConfig{
			Enabled:        false,
			Path:           "/data/cadence/library.duckdb",
			HistoryEnabled: true,
		},
		Directory: DirectoryConfig{
			IndexEnabled: true,
		},
		Feed: FeedConfig{
			RefreshInterval: 10 * time.Minute,
			Scope:           models.FeedScopeAll,
		},
		API: APIConfig{
			Enabled:         true,
			Host:            "127.0.0.1",
			Port:            7474,
			CORSOrigins:     []string{"http://localhost"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load is the entry point used by cmd/server.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// BACKEND_URL -> backend.base_url, FLUSH_INTERVAL -> flush.interval
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated env values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	// Backend
	"backend_mode":            "backend.mode",
	"backend_url":             "backend.base_url",
	"backend_api_key":         "backend.api_key",
	"backend_session_token":   "backend.session_token",
	"backend_owner_id":        "backend.owner_user_id",
	"backend_timeout":         "backend.timeout",
	"backend_rate_limit":      "backend.rate_limit",
	"backend_rate_burst":      "backend.rate_burst",
	"backend_circuit_breaker": "backend.circuit_breaker",

	// Storage
	"storage_provider":     "storage.provider",
	"storage_bucket":       "storage.bucket",
	"signed_url_ttl":       "storage.signed_url_ttl",
	"media_cache_size":     "storage.media_cache_size",
	"gcs_credentials_file": "storage.gcs_credentials_file",

	// Queue
	"queue_store":      "queue.store",
	"queue_path":       "queue.path",
	"queue_badger_dir": "queue.badger_dir",

	// Flush
	"flush_interval":        "flush.interval",
	"flush_on_startup":      "flush.on_startup",
	"flush_retry_attempts":  "flush.retry_attempts",
	"flush_retry_delay":     "flush.retry_delay",
	"flush_retry_max_delay": "flush.retry_max_delay",

	// Library
	"library_enabled": "library.enabled",
	"library_path":    "library.path",
	"library_history": "library.history_enabled",

	// Directory
	"directory_index_enabled": "directory.index_enabled",

	// Feed
	"feed_refresh_interval": "feed.refresh_interval",
	"feed_scope":            "feed.scope",

	// Status API
	"api_enabled":         "api.enabled",
	"http_host":           "api.host",
	"http_port":           "api.port",
	"cors_origins":        "api.cors_origins",
	"rate_limit_requests": "api.rate_limit_requests",
	"rate_limit_window":   "api.rate_limit_window",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - BACKEND_URL -> backend.base_url
//   - QUEUE_STORE -> queue.store
//   - HTTP_PORT -> api.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
