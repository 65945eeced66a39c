// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validateHTTPURL accepts only a bare http(s) origin such as
// "https://api.example.net" or "http://10.0.0.5:8080/". REST paths are
// appended per request, so a path or query here is a configuration mistake.
func validateHTTPURL(raw, field string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("%s: scheme must be http or https, got %q", field, u.Scheme)
	case u.Host == "":
		return fmt.Errorf("%s: missing host", field)
	case strings.Trim(u.Path, "/") != "":
		return fmt.Errorf("%s: must be a base URL without path %q", field, u.Path)
	case u.RawQuery != "" || u.Fragment != "":
		return fmt.Errorf("%s: must not carry a query or fragment", field)
	}
	return nil
}
