// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment kinds stored in AttachmentRef.Kind.
const (
	AttachmentKindAudio = "audio"
	AttachmentKindVideo = "video"
	AttachmentKindImage = "image"
	AttachmentKindFile  = "file"
)

// PostInsert is the body of POST /rest/v1/posts.
type PostInsert struct {
	ID               uuid.UUID  `json:"id"`
	OwnerUserID      string     `json:"owner_user_id"`
	SessionID        *string    `json:"session_id,omitempty"`
	SessionTimestamp *time.Time `json:"session_timestamp,omitempty"`
	Title            *string    `json:"title,omitempty"`
	DurationSeconds  *int       `json:"duration_seconds,omitempty"`
	ActivityType     *Activity  `json:"activity_type,omitempty"`
	ActivityDetail   *string    `json:"activity_detail,omitempty"`
	InstrumentLabel  *string    `json:"instrument_label,omitempty"`
	Mood             *int       `json:"mood,omitempty"`
	Effort           *int       `json:"effort,omitempty"`
	IsPublic         bool       `json:"is_public"`
	Notes            *string    `json:"notes,omitempty"`
}

// PostMetadataPatch is the body of the metadata reconciliation PATCH.
// Nil pointers are sent as explicit nulls except where tagged omitempty,
// so a retried publish cannot leave stale notes behind.
type PostMetadataPatch struct {
	IsPublic        bool      `json:"is_public"`
	Title           *string   `json:"title,omitempty"`
	DurationSeconds *int      `json:"duration_seconds,omitempty"`
	ActivityType    *Activity `json:"activity_type,omitempty"`
	ActivityDetail  *string   `json:"activity_detail,omitempty"`
	InstrumentLabel *string   `json:"instrument_label,omitempty"`
	Mood            *int      `json:"mood,omitempty"`
	Effort          *int      `json:"effort,omitempty"`
	Notes           *string   `json:"notes"`
}

// PostVisibilityPatch is the reconciliation PATCH body for a stub payload.
type PostVisibilityPatch struct {
	IsPublic bool `json:"is_public"`
}

// AttachmentRef points at one uploaded attachment in object storage.
type AttachmentRef struct {
	Kind        string  `json:"kind"`
	Bucket      string  `json:"bucket"`
	Path        string  `json:"path"`
	DisplayName *string `json:"display_name,omitempty"`
}

// AttachmentsPatch replaces the attachment list of a post.
// Attachments is never nil on the wire; an empty list is sent as [].
type AttachmentsPatch struct {
	Attachments []AttachmentRef `json:"attachments"`
}

// PostRow is a post as returned by GET /rest/v1/posts.
type PostRow struct {
	ID              uuid.UUID       `json:"id"`
	OwnerUserID     string          `json:"owner_user_id"`
	CreatedAt       time.Time       `json:"created_at"`
	Title           *string         `json:"title,omitempty"`
	DurationSeconds *int            `json:"duration_seconds,omitempty"`
	ActivityType    *Activity       `json:"activity_type,omitempty"`
	IsPublic        bool            `json:"is_public"`
	Notes           *string         `json:"notes,omitempty"`
	Attachments     []AttachmentRef `json:"attachments,omitempty"`
}

// NewPostInsert builds the create body for a payload owned by owner.
func NewPostInsert(owner string, p *PublishPayload) PostInsert {
	insert := PostInsert{
		ID:               p.ID,
		OwnerUserID:      owner,
		SessionID:        p.SessionRef,
		SessionTimestamp: p.SessionTimestamp,
		Title:            p.Title,
		DurationSeconds:  p.DurationSeconds,
		ActivityType:     p.ActivityType,
		ActivityDetail:   p.ActivityDetail,
		InstrumentLabel:  p.InstrumentLabel,
		Mood:             p.Mood,
		Effort:           p.Effort,
		IsPublic:         p.Visible(),
	}
	if !p.NotesHidden() {
		insert.Notes = p.Notes
	}
	return insert
}

// NewPostMetadataPatch builds the reconciliation PATCH body for a payload.
func NewPostMetadataPatch(p *PublishPayload) PostMetadataPatch {
	patch := PostMetadataPatch{
		IsPublic:        p.Visible(),
		Title:           p.Title,
		DurationSeconds: p.DurationSeconds,
		ActivityType:    p.ActivityType,
		ActivityDetail:  p.ActivityDetail,
		InstrumentLabel: p.InstrumentLabel,
		Mood:            p.Mood,
		Effort:          p.Effort,
	}
	if !p.NotesHidden() {
		patch.Notes = p.Notes
	}
	return patch
}
