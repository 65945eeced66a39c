// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package models

// DirectoryIdentity is the public-facing identity record of a backend user.
// UserID is the primary key; every other field is independently optional.
type DirectoryIdentity struct {
	UserID        string  `json:"user_id"`
	AccountHandle *string `json:"account_id,omitempty"`
	DisplayName   string  `json:"display_name"`
	Location      *string `json:"location,omitempty"`
	AvatarKey     *string `json:"avatar_key,omitempty"`
}

// Merge returns d updated with the non-empty fields of newer.
// Fields absent from newer keep their current value.
func (d DirectoryIdentity) Merge(newer DirectoryIdentity) DirectoryIdentity {
	out := d
	if out.UserID == "" {
		out.UserID = newer.UserID
	}
	if newer.DisplayName != "" {
		out.DisplayName = newer.DisplayName
	}
	out.AccountHandle = pick(newer.AccountHandle, d.AccountHandle)
	out.Location = pick(newer.Location, d.Location)
	out.AvatarKey = pick(newer.AvatarKey, d.AvatarKey)
	return out
}

// Label returns a display-ready name, degrading to the handle and then to
// the opaque user ID.
func (d DirectoryIdentity) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	if d.AccountHandle != nil && *d.AccountHandle != "" {
		return "@" + *d.AccountHandle
	}
	return d.UserID
}
