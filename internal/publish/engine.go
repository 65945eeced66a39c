// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/models"
	"github.com/tomtom215/cadence/internal/objectstore"
	"github.com/tomtom215/cadence/internal/queue"
	"github.com/tomtom215/cadence/internal/transport"
)

const pathPosts = "/rest/v1/posts"

// Steps named in ItemError and flush history.
const (
	StepCreate      = "create"
	StepMetadata    = "metadata"
	StepAttachments = "attachments"
	StepUpload      = "upload"
	StepLink        = "link_attachments"
	StepDequeue     = "dequeue"
)

var (
	// ErrFlushInProgress is returned when FlushNow is called during a flush.
	ErrFlushInProgress = errors.New("flush already in progress")

	// ErrNoOwner is returned when a networked flush has no owner user ID.
	ErrNoOwner = errors.New("owner user id is not set")
)

// AttachmentSource lists and reads attachments staged for a session.
type AttachmentSource interface {
	AttachmentsForSession(ctx context.Context, sessionRef string) ([]models.LocalAttachment, error)
	ReadAttachment(ctx context.Context, a models.LocalAttachment) ([]byte, error)
}

// HistorySink records per-item flush outcomes.
type HistorySink interface {
	RecordFlushOutcome(ctx context.Context, outcome models.FlushOutcome) error
}

// ErrorRecorder receives the most recent flush failure, or nil after a
// clean pass.
type ErrorRecorder interface {
	RecordFlushError(err error)
}

// ItemError describes why one item stayed queued.
type ItemError struct {
	ID    uuid.UUID `json:"id"`
	Step  string    `json:"step"`
	Error string    `json:"error"`
}

// Report summarizes one FlushNow call.
type Report struct {
	Mode       config.BackendMode `json:"mode"`
	Attempted  int                `json:"attempted"`
	Published  int                `json:"published"`
	Duplicates int                `json:"duplicates"`
	Failed     int                `json:"failed"`
	Skipped    int                `json:"skipped"`
	Errors     []ItemError        `json:"errors,omitempty"`
	Duration   time.Duration      `json:"duration_ns"`
}

// Engine runs the per-item publish protocol.
type Engine struct {
	client  *transport.Client
	queue   *queue.Queue
	objects objectstore.Store
	mode    config.BackendMode
	bucket  string

	mu          sync.RWMutex
	owner       string
	attachments AttachmentSource
	history     HistorySink
	recorder    ErrorRecorder
	listener    func(Report)
	lastReport  *Report

	running atomic.Bool
	now     func() time.Time
}

// NewEngine creates a flush engine. objects may be nil when no payload
// references a session.
func NewEngine(client *transport.Client, q *queue.Queue, objects objectstore.Store, backend *config.BackendConfig, storage *config.StorageConfig) *Engine {
	return &Engine{
		client:  client,
		queue:   q,
		objects: objects,
		mode:    backend.Mode,
		owner:   backend.OwnerUserID,
		bucket:  storage.Bucket,
		now:     time.Now,
	}
}

// SetOwner replaces the owner user ID, e.g. after sign-in.
func (e *Engine) SetOwner(owner string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.owner = owner
}

// SetAttachmentSource sets the local attachment collaborator.
func (e *Engine) SetAttachmentSource(src AttachmentSource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attachments = src
}

// SetHistorySink sets where per-item outcomes are recorded.
func (e *Engine) SetHistorySink(h HistorySink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = h
}

// SetErrorRecorder sets the receiver of flush failures.
func (e *Engine) SetErrorRecorder(r ErrorRecorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorder = r
}

// SetReportListener registers fn to receive every completed report.
// fn runs on the flushing goroutine and must not block.
func (e *Engine) SetReportListener(fn func(Report)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = fn
}

// Mode returns the configured backend mode.
func (e *Engine) Mode() config.BackendMode { return e.mode }

// Running reports whether a flush is in progress.
func (e *Engine) Running() bool { return e.running.Load() }

// LastReport returns the report of the most recent completed flush.
func (e *Engine) LastReport() (Report, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastReport == nil {
		return Report{}, false
	}
	return *e.lastReport, true
}

type collaborators struct {
	owner       string
	attachments AttachmentSource
	history     HistorySink
	recorder    ErrorRecorder
	listener    func(Report)
}

func (e *Engine) collaborators() collaborators {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return collaborators{
		owner:       e.owner,
		attachments: e.attachments,
		history:     e.history,
		recorder:    e.recorder,
		listener:    e.listener,
	}
}

// FlushNow processes the items queued at the time of the call.
// The returned error is non-nil only when the pass could not start or was
// cancelled; per-item failures are reported in Report.Errors.
func (e *Engine) FlushNow(ctx context.Context) (Report, error) {
	report := Report{Mode: e.mode}
	if !e.mode.NetworkEnabled() {
		return report, nil
	}

	if !e.running.CompareAndSwap(false, true) {
		return report, ErrFlushInProgress
	}
	defer e.running.Store(false)

	deps := e.collaborators()
	start := e.now()
	log := logging.Ctx(ctx).With().Str("component", "flush").Logger()

	if err := e.preflight(deps); err != nil {
		if deps.recorder != nil {
			deps.recorder.RecordFlushError(err)
		}
		return report, err
	}

	items := e.queue.Snapshot()
	var cancelErr error
	for i := range items {
		if err := ctx.Err(); err != nil {
			report.Skipped = len(items) - i
			cancelErr = err
			break
		}

		item := items[i]
		report.Attempted++
		outcome := e.flushItem(ctx, deps, &item)
		outcome.At = e.now()

		switch outcome.Outcome {
		case models.FlushOutcomePublished:
			report.Published++
		case models.FlushOutcomeDuplicate:
			report.Published++
			report.Duplicates++
		default:
			report.Failed++
			report.Errors = append(report.Errors, ItemError{ID: item.ID, Step: outcome.Step, Error: outcome.Error})
			log.Warn().
				Str("post_id", item.ID.String()).
				Str("step", outcome.Step).
				Str("error", outcome.Error).
				Msg("Publish failed, item stays queued")
		}

		if deps.history != nil {
			if err := deps.history.RecordFlushOutcome(ctx, outcome); err != nil {
				log.Debug().Err(err).Msg("Failed to record flush outcome")
			}
		}
	}

	report.Duration = e.now().Sub(start)
	metrics.RecordFlush(report.Duration, report.Published-report.Duplicates, report.Duplicates, report.Failed, report.Skipped)

	if deps.recorder != nil {
		deps.recorder.RecordFlushError(reportError(&report, cancelErr))
	}

	e.mu.Lock()
	saved := report
	e.lastReport = &saved
	e.mu.Unlock()

	if deps.listener != nil {
		deps.listener(report)
	}

	if report.Attempted > 0 {
		log.Info().
			Int("attempted", report.Attempted).
			Int("published", report.Published).
			Int("duplicates", report.Duplicates).
			Int("failed", report.Failed).
			Int("skipped", report.Skipped).
			Dur("duration", report.Duration).
			Msg("Flush completed")
	}

	return report, cancelErr
}

func (e *Engine) preflight(deps collaborators) error {
	if !e.client.Configured() {
		return transport.ErrNotConfigured
	}
	if deps.owner == "" {
		return ErrNoOwner
	}
	return nil
}

// reportError summarizes a pass for the feed store. nil means clean.
func reportError(r *Report, cancelErr error) error {
	if cancelErr != nil {
		return fmt.Errorf("flush cancelled: %w", cancelErr)
	}
	if len(r.Errors) == 0 {
		return nil
	}
	first := r.Errors[0]
	return fmt.Errorf("%d of %d items failed; first %s at %s: %s", r.Failed, r.Attempted, first.ID, first.Step, first.Error)
}

// flushItem runs the protocol for one payload and dequeues it on success.
func (e *Engine) flushItem(ctx context.Context, deps collaborators, p *models.PublishPayload) models.FlushOutcome {
	outcome := models.FlushOutcome{PostID: p.ID}
	fail := func(step string, err error) models.FlushOutcome {
		outcome.Outcome = models.FlushOutcomeFailed
		outcome.Step = step
		outcome.Error = err.Error()
		return outcome
	}

	duplicate, err := e.createPost(ctx, deps.owner, p)
	if err != nil {
		return fail(StepCreate, err)
	}

	if err := e.patchMetadata(ctx, p); err != nil {
		return fail(StepMetadata, err)
	}

	if p.SessionRef != nil {
		refs, step, err := e.uploadAttachments(ctx, deps, p)
		if err != nil {
			return fail(step, err)
		}
		if err := e.patchAttachments(ctx, p.ID, refs); err != nil {
			return fail(StepLink, err)
		}
		outcome.Attachments = len(refs)
	}

	removed, err := e.queue.DequeueIf(p.ID, *p)
	if err != nil && !errors.Is(err, queue.ErrNotFound) {
		return fail(StepDequeue, err)
	}
	if err == nil && !removed {
		logging.Ctx(ctx).Debug().Str("post_id", p.ID.String()).Msg("Post changed during flush, left queued for the next pass")
	}

	outcome.Outcome = models.FlushOutcomePublished
	if duplicate {
		outcome.Outcome = models.FlushOutcomeDuplicate
	}
	return outcome
}

// createPost returns duplicate=true when the post already exists.
func (e *Engine) createPost(ctx context.Context, owner string, p *models.PublishPayload) (bool, error) {
	insert := models.NewPostInsert(owner, p)
	_, err := e.client.SendJSON(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    pathPosts,
		Headers: map[string]string{"Prefer": "return=minimal"},
	}, insert)
	if err == nil {
		return false, nil
	}
	if isDuplicateKey(err) {
		logging.Ctx(ctx).Debug().Str("post_id", p.ID.String()).Msg("Post already exists, reconciling")
		return true, nil
	}
	return false, err
}

// patchMetadata reconciles mutable fields. A stub knows nothing but its
// visibility, so it patches only is_public and leaves the rest of the row.
func (e *Engine) patchMetadata(ctx context.Context, p *models.PublishPayload) error {
	var body any = models.NewPostMetadataPatch(p)
	if p.IsStub() {
		body = models.PostVisibilityPatch{IsPublic: p.Visible()}
	}
	_, err := e.client.SendJSON(ctx, postPatchRequest(p.ID), body)
	return err
}

func (e *Engine) patchAttachments(ctx context.Context, id uuid.UUID, refs []models.AttachmentRef) error {
	if refs == nil {
		refs = []models.AttachmentRef{}
	}
	_, err := e.client.SendJSON(ctx, postPatchRequest(id), models.AttachmentsPatch{Attachments: refs})
	return err
}

func postPatchRequest(id uuid.UUID) transport.Request {
	return transport.Request{
		Method:  http.MethodPatch,
		Path:    pathPosts,
		Query:   url.Values{"id": {"eq." + id.String()}},
		Headers: map[string]string{"Prefer": "return=minimal"},
	}
}
