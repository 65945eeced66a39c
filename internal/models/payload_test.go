// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package models

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func richPayload(id uuid.UUID) PublishPayload {
	ts := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	activity := CoreActivity(2)
	return PublishPayload{
		ID:               id,
		SessionRef:       strPtr("session-1"),
		SessionTimestamp: &ts,
		Title:            strPtr("Scales"),
		DurationSeconds:  intPtr(1800),
		ActivityType:     &activity,
		InstrumentLabel:  strPtr("Cello"),
		Mood:             intPtr(4),
		Effort:           intPtr(3),
		IsPublic:         boolPtr(true),
		Notes:            strPtr("slow bows"),
		NotesArePrivate:  boolPtr(false),
	}
}

func TestMerge_IdenticalPayloadIsIdempotent(t *testing.T) {
	p := richPayload(uuid.New())
	merged := p.Normalized().Merge(p)
	if !reflect.DeepEqual(merged, p) {
		t.Errorf("merge of identical payload changed it:\n got  %+v\n want %+v", merged, p)
	}
}

func TestPublishPayload_Equal(t *testing.T) {
	id := uuid.New()
	a, b := richPayload(id), richPayload(id)
	if !a.Equal(b) {
		t.Error("payloads with the same values through distinct pointers should be equal")
	}

	b.IsPublic = boolPtr(false)
	if a.Equal(b) {
		t.Error("visibility change should make payloads differ")
	}
	if a.Equal(richPayload(uuid.New())) {
		t.Error("different IDs should never be equal")
	}
}

func TestMerge_NormalizedUnsetVisibilityIsIdempotent(t *testing.T) {
	p := richPayload(uuid.New())
	p.IsPublic = nil

	stored := p.Normalized()
	if !stored.Visible() {
		t.Fatal("payload with metadata should normalize to public")
	}
	if merged := stored.Merge(p); !reflect.DeepEqual(merged, stored) {
		t.Errorf("second enqueue changed stored payload:\n got  %+v\n want %+v", merged, stored)
	}
}

func TestMerge_StubLeavesVisibilityAndMetadata(t *testing.T) {
	existing := richPayload(uuid.New())
	merged := existing.Merge(NewStub(existing.ID))
	if !reflect.DeepEqual(merged, existing) {
		t.Errorf("stub merge regressed entry:\n got  %+v\n want %+v", merged, existing)
	}
}

func TestMerge_PrivateWins(t *testing.T) {
	tests := []struct {
		name     string
		existing PublishPayload
	}{
		{"rich public entry", richPayload(uuid.New())},
		{"stub entry", NewStub(uuid.New())},
		{"already private", PublishPayload{ID: uuid.New(), IsPublic: boolPtr(false)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newer := richPayload(tt.existing.ID)
			newer.IsPublic = boolPtr(false)
			merged := tt.existing.Merge(newer)
			if merged.IsPublic == nil || *merged.IsPublic {
				t.Errorf("IsPublic = %v, want explicit false", merged.IsPublic)
			}
		})
	}
}

func TestMerge_MetadataImpliesPublic(t *testing.T) {
	existing := PublishPayload{ID: uuid.New(), IsPublic: boolPtr(false)}
	newer := PublishPayload{ID: existing.ID, Title: strPtr("Etude")}

	merged := existing.Merge(newer)
	if !merged.Visible() {
		t.Error("metadata-bearing re-enqueue should make the post public")
	}
	if merged.Title == nil || *merged.Title != "Etude" {
		t.Errorf("Title = %v, want Etude", merged.Title)
	}
}

func TestMerge_FieldPrecedence(t *testing.T) {
	existing := richPayload(uuid.New())
	newer := PublishPayload{ID: existing.ID, Mood: intPtr(9)}

	merged := existing.Merge(newer)
	if *merged.Mood != 9 {
		t.Errorf("Mood = %d, want 9", *merged.Mood)
	}
	if *merged.Title != "Scales" {
		t.Errorf("Title = %q, want retained Scales", *merged.Title)
	}
	if *merged.DurationSeconds != 1800 {
		t.Errorf("DurationSeconds = %d, want retained 1800", *merged.DurationSeconds)
	}
}

func TestMerge_NotesPrivacyOnlyWithNotes(t *testing.T) {
	existing := richPayload(uuid.New())

	withoutNotes := PublishPayload{ID: existing.ID, NotesArePrivate: boolPtr(true)}
	merged := existing.Merge(withoutNotes)
	if merged.NotesHidden() {
		t.Error("notes privacy changed without new notes")
	}

	withNotes := PublishPayload{ID: existing.ID, Notes: strPtr("private thoughts"), NotesArePrivate: boolPtr(true)}
	merged = existing.Merge(withNotes)
	if !merged.NotesHidden() {
		t.Error("notes privacy should update when notes are present")
	}
	if *merged.Notes != "private thoughts" {
		t.Errorf("Notes = %q", *merged.Notes)
	}
}

func TestHasMetadata(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name    string
		payload PublishPayload
		want    bool
	}{
		{"stub", NewStub(id), false},
		{"visibility only", PublishPayload{ID: id, IsPublic: boolPtr(true)}, false},
		{"notes private false", PublishPayload{ID: id, NotesArePrivate: boolPtr(false)}, false},
		{"notes private true", PublishPayload{ID: id, NotesArePrivate: boolPtr(true)}, true},
		{"effort", PublishPayload{ID: id, Effort: intPtr(0)}, true},
		{"session ref", PublishPayload{ID: id, SessionRef: strPtr("s")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.payload.HasMetadata(); got != tt.want {
				t.Errorf("HasMetadata() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPostInsert_WithholdsPrivateNotes(t *testing.T) {
	p := richPayload(uuid.New())
	p.NotesArePrivate = boolPtr(true)

	insert := NewPostInsert("owner-1", &p)
	if insert.Notes != nil {
		t.Errorf("private notes leaked into insert: %q", *insert.Notes)
	}
	if !insert.IsPublic {
		t.Error("insert should carry public visibility")
	}

	patch := NewPostMetadataPatch(&p)
	if patch.Notes != nil {
		t.Errorf("private notes leaked into patch: %q", *patch.Notes)
	}
}

func TestLocalAttachment_ObjectPath(t *testing.T) {
	post := uuid.MustParse("7d9f3c1e-2f4a-4a8b-9c1d-0e2f3a4b5c6d")
	tests := []struct {
		name string
		ext  string
		want string
	}{
		{"plain", "m4a", "owner-1/" + post.String() + "/att-1.m4a"},
		{"dot and case", ".JPG", "owner-1/" + post.String() + "/att-1.jpg"},
		{"missing", "", "owner-1/" + post.String() + "/att-1.bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := LocalAttachment{ID: "att-1", Ext: tt.ext}
			if got := a.ObjectPath("owner-1", post); got != tt.want {
				t.Errorf("ObjectPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
