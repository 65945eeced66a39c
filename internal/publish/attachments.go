// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/models"
	"github.com/tomtom215/cadence/internal/objectstore"
)

var errNoObjectStore = errors.New("object store is not configured")

// uploadAttachments uploads every non-private attachment of the payload's
// session and returns the references to link. On failure it also returns
// the step that failed.
func (e *Engine) uploadAttachments(ctx context.Context, deps collaborators, p *models.PublishPayload) ([]models.AttachmentRef, string, error) {
	if deps.attachments == nil {
		return []models.AttachmentRef{}, "", nil
	}

	local, err := deps.attachments.AttachmentsForSession(ctx, *p.SessionRef)
	if err != nil {
		return nil, StepAttachments, fmt.Errorf("list attachments: %w", err)
	}

	refs := make([]models.AttachmentRef, 0, len(local))
	for i := range local {
		a := local[i]
		if a.IsPrivate {
			continue
		}
		if e.objects == nil {
			return nil, StepUpload, errNoObjectStore
		}
		if err := ctx.Err(); err != nil {
			return nil, StepUpload, err
		}

		data, err := deps.attachments.ReadAttachment(ctx, a)
		if err != nil {
			return nil, StepUpload, fmt.Errorf("read attachment %s: %w", a.ID, err)
		}

		path := a.ObjectPath(deps.owner, p.ID)
		err = e.objects.Upload(ctx, e.bucket, path, objectstore.ContentType(a.Extension()), data)
		if err != nil {
			metrics.AttachmentUploads.WithLabelValues(e.objects.Provider(), "failure").Inc()
			return nil, StepUpload, fmt.Errorf("upload attachment %s: %w", a.ID, err)
		}
		metrics.AttachmentUploads.WithLabelValues(e.objects.Provider(), "success").Inc()

		refs = append(refs, models.AttachmentRef{
			Kind:        a.Kind,
			Bucket:      e.bucket,
			Path:        path,
			DisplayName: a.DisplayName,
		})
	}
	return refs, "", nil
}
