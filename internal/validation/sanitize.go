// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Handle length bounds, inclusive.
const (
	MinHandleLength = 3
	MaxHandleLength = 24
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_]{3,24}$`)

func registerCustomValidators(v *validator.Validate) {
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("account_handle", validateAccountHandle)
}

// validateAccountHandle accepts string or *string fields already in sanitized form.
func validateAccountHandle(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	if field.Kind() != reflect.String {
		return false
	}
	return handlePattern.MatchString(field.String())
}

// SanitizeHandle normalizes a user-typed account handle.
//
// The input is trimmed, lowercased, stripped of one leading '@' and filtered
// to [a-z0-9_]. Results outside the length bounds return nil so callers send
// an explicit null rather than an invalid handle.
func SanitizeHandle(raw *string) *string {
	if raw == nil {
		return nil
	}
	s := strings.ToLower(strings.TrimSpace(*raw))
	s = strings.TrimPrefix(s, "@")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	out := b.String()

	if GetValidator().Var(out, "account_handle") != nil {
		return nil
	}
	return &out
}

// SanitizeLocation trims whitespace; an empty result is absent.
func SanitizeLocation(raw *string) *string {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil
	}
	return &s
}
