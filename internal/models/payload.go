// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package models

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// PublishPayload is one pending publish intent.
// ID is the sole identity key and is stable across retries.
type PublishPayload struct {
	ID               uuid.UUID  `json:"id" validate:"required"`
	SessionRef       *string    `json:"sessionRef,omitempty" validate:"omitempty,min=1,max=128"`
	SessionTimestamp *time.Time `json:"sessionTimestamp,omitempty"`
	Title            *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	DurationSeconds  *int       `json:"durationSeconds,omitempty" validate:"omitempty,min=0,max=86400"`
	ActivityType     *Activity  `json:"activityType,omitempty"`
	ActivityDetail   *string    `json:"activityDetail,omitempty" validate:"omitempty,max=200"`
	InstrumentLabel  *string    `json:"instrumentLabel,omitempty" validate:"omitempty,max=100"`
	Mood             *int       `json:"mood,omitempty" validate:"omitempty,min=0,max=10"`
	Effort           *int       `json:"effort,omitempty" validate:"omitempty,min=0,max=10"`
	IsPublic         *bool      `json:"isPublic,omitempty"`
	Notes            *string    `json:"notes,omitempty" validate:"omitempty,max=10000"`
	NotesArePrivate  *bool      `json:"notesArePrivate,omitempty"`
}

// NewStub returns a placeholder payload carrying only the post ID.
func NewStub(id uuid.UUID) PublishPayload {
	return PublishPayload{ID: id}
}

// IsStub reports whether the payload carries nothing beyond its ID.
func (p *PublishPayload) IsStub() bool {
	return !p.HasMetadata() && p.IsPublic == nil
}

// HasMetadata reports whether any optional metadata field is set.
// NotesArePrivate counts only when it is not false.
func (p *PublishPayload) HasMetadata() bool {
	return p.SessionRef != nil ||
		p.SessionTimestamp != nil ||
		p.Title != nil ||
		p.DurationSeconds != nil ||
		p.ActivityType != nil ||
		p.ActivityDetail != nil ||
		p.InstrumentLabel != nil ||
		p.Mood != nil ||
		p.Effort != nil ||
		p.Notes != nil ||
		(p.NotesArePrivate != nil && *p.NotesArePrivate)
}

// Visible returns the effective visibility. Unset visibility is private.
func (p *PublishPayload) Visible() bool {
	return p.IsPublic != nil && *p.IsPublic
}

// NotesHidden reports whether notes must be withheld from the backend.
func (p *PublishPayload) NotesHidden() bool {
	return p.NotesArePrivate != nil && *p.NotesArePrivate
}

// Normalized resolves unset visibility on a payload carrying metadata,
// so a payload stored on first insert merges idempotently with itself.
func (p PublishPayload) Normalized() PublishPayload {
	if p.IsPublic == nil && p.HasMetadata() {
		p.IsPublic = boolPtr(true)
	}
	return p
}

// Merge returns p updated with newer. p is treated as the queued entry.
func (p PublishPayload) Merge(newer PublishPayload) PublishPayload {
	out := p

	out.SessionRef = pick(newer.SessionRef, p.SessionRef)
	out.SessionTimestamp = pick(newer.SessionTimestamp, p.SessionTimestamp)
	out.Title = pick(newer.Title, p.Title)
	out.DurationSeconds = pick(newer.DurationSeconds, p.DurationSeconds)
	out.ActivityType = pick(newer.ActivityType, p.ActivityType)
	out.ActivityDetail = pick(newer.ActivityDetail, p.ActivityDetail)
	out.InstrumentLabel = pick(newer.InstrumentLabel, p.InstrumentLabel)
	out.Mood = pick(newer.Mood, p.Mood)
	out.Effort = pick(newer.Effort, p.Effort)

	if newer.Notes != nil {
		out.Notes = newer.Notes
		out.NotesArePrivate = pick(newer.NotesArePrivate, p.NotesArePrivate)
	}

	switch {
	case newer.IsPublic != nil && !*newer.IsPublic:
		out.IsPublic = boolPtr(false)
	case newer.HasMetadata():
		out.IsPublic = boolPtr(true)
	}

	return out
}

// Equal reports whether p and o carry the same ID and field values.
// Pointer fields compare by pointee.
func (p PublishPayload) Equal(o PublishPayload) bool {
	return reflect.DeepEqual(p, o)
}

func pick[T any](newer, older *T) *T {
	if newer != nil {
		return newer
	}
	return older
}

func boolPtr(b bool) *bool {
	return &b
}
