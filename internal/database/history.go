// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/models"
)

// RecordFlushOutcome appends o to flush_history. It is a no-op when
// history is disabled.
func (db *DB) RecordFlushOutcome(ctx context.Context, o models.FlushOutcome) error {
	if !db.historyEnabled {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	at := o.At
	if at.IsZero() {
		at = time.Now()
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO flush_history (post_id, outcome, step, error, attachments, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.PostID.String(), o.Outcome, emptyNull(o.Step), emptyNull(o.Error), o.Attachments, at.UTC())
	metrics.RecordDBQuery("insert", "flush_history", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("record flush outcome: %w", err)
	}
	return nil
}

// FlushHistory returns the most recent outcomes, newest first. When postID
// is not uuid.Nil only that post's outcomes are returned.
func (db *DB) FlushHistory(ctx context.Context, postID uuid.UUID, limit int) ([]models.FlushOutcome, error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT post_id, outcome, step, error, attachments, recorded_at FROM flush_history`
	args := []any{}
	if postID != uuid.Nil {
		query += ` WHERE post_id = ?`
		args = append(args, postID.String())
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "flush_history", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query flush history: %w", err)
	}
	defer closeQuietly(rows)

	var out []models.FlushOutcome
	for rows.Next() {
		var (
			o         models.FlushOutcome
			rawID     string
			step, msg sql.NullString
		)
		if err := rows.Scan(&rawID, &o.Outcome, &step, &msg, &o.Attachments, &o.At); err != nil {
			return nil, fmt.Errorf("scan flush history: %w", err)
		}
		if o.PostID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("parse post id %q: %w", rawID, err)
		}
		o.Step = step.String
		o.Error = msg.String
		out = append(out, o)
	}
	return out, rows.Err()
}

func emptyNull(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
