// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalAttachment is an attachment staged on this device for a session.
type LocalAttachment struct {
	ID          string  `json:"id"`
	SessionID   string  `json:"session_id"`
	Kind        string  `json:"kind"`
	FilePath    string  `json:"file_path"`
	Ext         string  `json:"ext"`
	IsPrivate   bool    `json:"is_private"`
	DisplayName *string `json:"display_name,omitempty"`
}

// Extension returns the lowercased extension without a leading dot,
// or "bin" when none is recorded.
func (a *LocalAttachment) Extension() string {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(a.Ext), "."))
	if ext == "" {
		return "bin"
	}
	return ext
}

// ObjectPath returns the storage path <owner>/<postID>/<attachmentID>.<ext>.
func (a *LocalAttachment) ObjectPath(owner string, postID uuid.UUID) string {
	return owner + "/" + postID.String() + "/" + a.ID + "." + a.Extension()
}

// Flush outcomes recorded per item.
const (
	FlushOutcomePublished = "published"
	FlushOutcomeDuplicate = "duplicate"
	FlushOutcomeFailed    = "failed"
	FlushOutcomeSkipped   = "skipped"
)

// FlushOutcome is the result of one queue item in one flush pass.
type FlushOutcome struct {
	PostID      uuid.UUID `json:"post_id"`
	Outcome     string    `json:"outcome"`
	Step        string    `json:"step,omitempty"`
	Error       string    `json:"error,omitempty"`
	Attachments int       `json:"attachments"`
	At          time.Time `json:"at"`
}
