// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/models"
)

// Session is a practice session recorded on this device.
type Session struct {
	ID              string
	StartedAt       time.Time
	Title           *string
	DurationSeconds *int
	InstrumentLabel *string
}

// UpsertSession inserts or replaces a session row.
func (db *DB) UpsertSession(ctx context.Context, s *Session) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, title, duration_seconds, instrument_label)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			started_at = excluded.started_at,
			title = excluded.title,
			duration_seconds = excluded.duration_seconds,
			instrument_label = excluded.instrument_label`,
		s.ID, s.StartedAt.UTC(), nullString(s.Title), nullInt(s.DurationSeconds), nullString(s.InstrumentLabel))
	metrics.RecordDBQuery("upsert", "sessions", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", s.ID, err)
	}
	return nil
}

// GetSession returns the session with id or ErrNotFound.
func (db *DB) GetSession(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		s        Session
		title    sql.NullString
		duration sql.NullInt64
		label    sql.NullString
	)
	start := time.Now()
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, started_at, title, duration_seconds, instrument_label FROM sessions WHERE id = ?`, id).
		Scan(&s.ID, &s.StartedAt, &title, &duration, &label)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("select", "sessions", time.Since(start), nil)
		return nil, ErrNotFound
	}
	metrics.RecordDBQuery("select", "sessions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	s.Title = stringPtr(title)
	s.InstrumentLabel = stringPtr(label)
	if duration.Valid {
		d := int(duration.Int64)
		s.DurationSeconds = &d
	}
	return &s, nil
}

// AddAttachment inserts or replaces an attachment row.
func (db *DB) AddAttachment(ctx context.Context, a *models.LocalAttachment) error {
	if a.ID == "" || a.SessionID == "" {
		return errors.New("attachment id and session id are required")
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO attachments (id, session_id, kind, file_path, ext, is_private, display_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			session_id = excluded.session_id,
			kind = excluded.kind,
			file_path = excluded.file_path,
			ext = excluded.ext,
			is_private = excluded.is_private,
			display_name = excluded.display_name`,
		a.ID, a.SessionID, a.Kind, a.FilePath, a.Ext, a.IsPrivate, nullString(a.DisplayName))
	metrics.RecordDBQuery("upsert", "attachments", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("add attachment %s: %w", a.ID, err)
	}
	return nil
}

// SetAttachmentPrivate toggles whether an attachment is withheld from publishing.
func (db *DB) SetAttachmentPrivate(ctx context.Context, id string, private bool) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `UPDATE attachments SET is_private = ? WHERE id = ?`, private, id)
	metrics.RecordDBQuery("update", "attachments", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("update attachment %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachmentsForSession lists the attachments of a session in creation order.
func (db *DB) AttachmentsForSession(ctx context.Context, sessionRef string) ([]models.LocalAttachment, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, session_id, kind, file_path, ext, is_private, display_name
		FROM attachments
		WHERE session_id = ?
		ORDER BY created_at, id`, sessionRef)
	metrics.RecordDBQuery("select", "attachments", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list attachments for %s: %w", sessionRef, err)
	}
	defer closeQuietly(rows)

	var out []models.LocalAttachment
	for rows.Next() {
		var (
			a    models.LocalAttachment
			name sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Kind, &a.FilePath, &a.Ext, &a.IsPrivate, &name); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		a.DisplayName = stringPtr(name)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ReadAttachment returns the staged bytes of a.
func (db *DB) ReadAttachment(_ context.Context, a models.LocalAttachment) ([]byte, error) {
	data, err := os.ReadFile(a.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read staged attachment %s: %w", a.ID, err)
	}
	return data, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
