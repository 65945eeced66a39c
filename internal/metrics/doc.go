// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package metrics provides Prometheus metrics for the sync pipeline.

Metrics are registered on the default registry through promauto and exposed
by the status API at /metrics:

	curl http://127.0.0.1:7474/metrics

Backend transport:
  - cadence_backend_requests_total{method,status}
  - cadence_backend_request_duration_seconds{method}
  - cadence_backend_auth_challenges_total{outcome}

Publish pipeline:
  - cadence_publish_queue_depth
  - cadence_flush_items_total{outcome}
  - cadence_flush_last_success_timestamp
  - cadence_attachment_uploads_total{provider,result}

Caches: cadence_cache_hits_total, cadence_cache_misses_total and
cadence_cache_evictions_total, labelled by cache name.

The circuit_breaker_* families are shared with the transport's gobreaker
wrapper.
*/
package metrics
