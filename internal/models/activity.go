// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ActivityKind discriminates the Activity variant.
type ActivityKind int

const (
	// ActivityCore is one of the built-in activities, identified by number.
	ActivityCore ActivityKind = iota + 1

	// ActivityCustom is a user-defined activity, identified by name.
	ActivityCustom
)

const (
	corePrefix   = "core:"
	customPrefix = "custom:"
)

// ErrInvalidActivity is returned when an activity string cannot be parsed.
var ErrInvalidActivity = errors.New("invalid activity")

// Activity is either Core(n) or Custom(name).
// Only the field matching Kind is meaningful.
type Activity struct {
	Kind   ActivityKind
	Core   int
	Custom string
}

// CoreActivity returns the built-in activity with the given number.
func CoreActivity(n int) Activity {
	return Activity{Kind: ActivityCore, Core: n}
}

// CustomActivity returns a user-defined activity.
func CustomActivity(name string) Activity {
	return Activity{Kind: ActivityCustom, Custom: name}
}

// ParseActivity parses the persisted form ("core:<n>" or "custom:<name>").
func ParseActivity(s string) (Activity, error) {
	switch {
	case strings.HasPrefix(s, corePrefix):
		n, err := strconv.Atoi(strings.TrimPrefix(s, corePrefix))
		if err != nil || n < 0 {
			return Activity{}, fmt.Errorf("%w: %q", ErrInvalidActivity, s)
		}
		return CoreActivity(n), nil
	case strings.HasPrefix(s, customPrefix):
		name := strings.TrimSpace(strings.TrimPrefix(s, customPrefix))
		if name == "" {
			return Activity{}, fmt.Errorf("%w: empty custom name", ErrInvalidActivity)
		}
		return CustomActivity(name), nil
	default:
		return Activity{}, fmt.Errorf("%w: %q", ErrInvalidActivity, s)
	}
}

// String returns the persisted form of the activity.
func (a Activity) String() string {
	switch a.Kind {
	case ActivityCore:
		return corePrefix + strconv.Itoa(a.Core)
	case ActivityCustom:
		return customPrefix + a.Custom
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Activity) MarshalText() ([]byte, error) {
	if a.Kind != ActivityCore && a.Kind != ActivityCustom {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidActivity, a.Kind)
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Activity) UnmarshalText(text []byte) error {
	parsed, err := ParseActivity(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
