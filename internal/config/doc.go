// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package config provides centralized configuration management for Cadence.

Configuration is layered with Koanf v2:

  - Built-in defaults (defaultConfig)
  - Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/cadence/config.yaml)
  - Environment variables (BACKEND_URL, QUEUE_STORE, FLUSH_INTERVAL, ...)

Later sources override earlier ones. The result is validated before it is
returned.

# Configuration Structure

  - BackendConfig: mode gating (local, hosted, self_hosted), base URL, credentials
  - StorageConfig: attachment bucket, object storage provider, signed URL TTL
  - QueueConfig: publish queue persistence (JSON file or BadgerDB)
  - FlushConfig: background flush interval and retry backoff
  - LibraryConfig: local DuckDB session and attachment store
  - DirectoryConfig: offline directory search index
  - APIConfig: loopback status API
  - LoggingConfig: zerolog level and format

# Usage Example

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	if !cfg.Backend.Mode.NetworkEnabled() {
	    // flush is a no-op
	}

# Thread Safety

Config is immutable after Load() and safe for concurrent reads.
*/
package config
