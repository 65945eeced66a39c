// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package transport performs REST and object storage calls against the backend.

A Client builds each URL from the configured base, injects the apikey and
bearer headers, and classifies the outcome into one of the error types in
errors.go:

  - ErrNotConfigured: no base URL; no network attempt is made
  - *InvalidURLError: the path or query cannot form a URL
  - *HTTPError: the backend answered with a non-2xx status
  - *TransportError: no response was received (including breaker rejections)
  - *EncodingError / *DecodingError: JSON shape mismatches

On 401 or 403 a registered AuthChallengeFunc is given one chance to refresh
the session; if it reports success the identical request is sent exactly
once more. There is no other retry in this package.

Outbound calls pass through an optional golang.org/x/time/rate limiter and
a sony/gobreaker circuit breaker that only counts connectivity failures and
5xx responses.
*/
package transport
