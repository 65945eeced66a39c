// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package models

import "testing"

func TestDirectoryIdentity_MergeKeepsAbsentFields(t *testing.T) {
	old := DirectoryIdentity{
		UserID:        "u1",
		DisplayName:   "Ada",
		AccountHandle: strPtr("ada"),
		AvatarKey:     strPtr("avatars/u1.jpg"),
	}
	newer := DirectoryIdentity{UserID: "u1", DisplayName: "Ada L.", Location: strPtr("Leeds")}

	merged := old.Merge(newer)
	if merged.DisplayName != "Ada L." {
		t.Errorf("DisplayName = %q", merged.DisplayName)
	}
	if merged.AvatarKey == nil || *merged.AvatarKey != "avatars/u1.jpg" {
		t.Errorf("AvatarKey lost: %v", merged.AvatarKey)
	}
	if merged.AccountHandle == nil || *merged.AccountHandle != "ada" {
		t.Errorf("AccountHandle lost: %v", merged.AccountHandle)
	}
	if merged.Location == nil || *merged.Location != "Leeds" {
		t.Errorf("Location = %v", merged.Location)
	}
}

func TestDirectoryIdentity_MergeEmptyDisplayName(t *testing.T) {
	merged := DirectoryIdentity{UserID: "u1", DisplayName: "Ada"}.Merge(DirectoryIdentity{UserID: "u1"})
	if merged.DisplayName != "Ada" {
		t.Errorf("empty display name overwrote existing: %q", merged.DisplayName)
	}
}

func TestDirectoryIdentity_Label(t *testing.T) {
	tests := []struct {
		name string
		id   DirectoryIdentity
		want string
	}{
		{"display name", DirectoryIdentity{UserID: "u1", DisplayName: "Ada"}, "Ada"},
		{"handle", DirectoryIdentity{UserID: "u1", AccountHandle: strPtr("ada")}, "@ada"},
		{"opaque id", DirectoryIdentity{UserID: "u1"}, "u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}
