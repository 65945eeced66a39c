// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package transport

import (
	"net/url"
	"strings"
)

// splitLegacyPath separates an embedded "resource?a=b" query from path and
// merges it with the caller's structured query. Caller values win per key.
func splitLegacyPath(path string, query url.Values) (string, url.Values, error) {
	merged := url.Values{}

	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		embedded, err := url.ParseQuery(path[idx+1:])
		if err != nil {
			return "", nil, &InvalidURLError{Raw: path, Err: err}
		}
		path = path[:idx]
		for k, v := range embedded {
			merged[k] = v
		}
	}

	for k, v := range query {
		merged[k] = v
	}
	return path, merged, nil
}

// buildURL joins base, path and query into one absolute URL string.
// Path segments are used as given; callers escape object keys beforehand.
func buildURL(base, path string, query url.Values) (string, error) {
	path, merged, err := splitLegacyPath(path, query)
	if err != nil {
		return "", err
	}

	raw := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	if len(merged) > 0 {
		raw += "?" + merged.Encode()
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", &InvalidURLError{Raw: raw, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &InvalidURLError{Raw: raw, Err: errMissingHost}
	}
	return raw, nil
}

// escapeObjectPath percent-encodes each segment of an object key.
func escapeObjectPath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
