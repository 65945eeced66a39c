// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package publish

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/transport"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// duplicateMarkers are matched against the raw body when the structured
// code is missing or unrecognized.
var duplicateMarkers = []string{
	uniqueViolation,
	"duplicate key",
	"posts_pkey",
	"posts_id_key",
	"already exists",
}

// backendError is the PostgREST error body.
type backendError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// isDuplicateKey reports whether err is a create conflict caused by the
// post already existing.
func isDuplicateKey(err error) bool {
	var he *transport.HTTPError
	if !errors.As(err, &he) || he.Status != http.StatusConflict {
		return false
	}

	var body backendError
	if json.Unmarshal([]byte(he.Body), &body) == nil {
		if body.Code == uniqueViolation {
			return true
		}
		if body.Code != "" && isSQLState(body.Code) {
			// A different constraint class, e.g. a foreign key violation.
			return false
		}
	}

	raw := strings.ToLower(he.Body)
	for _, marker := range duplicateMarkers {
		if strings.Contains(raw, marker) {
			return true
		}
	}
	return false
}

// isSQLState reports whether code looks like a five character SQLSTATE.
func isSQLState(code string) bool {
	if len(code) != 5 {
		return false
	}
	for _, r := range code {
		if !(r >= '0' && r <= '9') && !(r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
