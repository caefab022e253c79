package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dgallion1/docpersona/internal/metrics"
	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/dgallion1/docpersona/internal/store"
)

// Extractor turns raw document bytes into an outline.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader, filename string) (*outline.Outline, error)
}

// Worker processes a single document job.
type Worker struct {
	extractor Extractor
	store     store.Store
	jobs      *JobStore
	metrics   *metrics.Metrics
	log       *slog.Logger
	backoff   func(attempt int) time.Duration
}

func NewWorker(ext Extractor, st store.Store, jobs *JobStore, m *metrics.Metrics, log *slog.Logger) *Worker {
	return &Worker{
		extractor: ext,
		store:     st,
		jobs:      jobs,
		metrics:   m,
		log:       log,
		backoff:   Backoff,
	}
}

// Process parses the job's file and persists the outline.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	if w.jobs != nil {
		if docID, dup := w.jobs.CompletedByHash(job.ContentHash, job.ID); dup {
			log.Info("duplicate document, skipping", "existing_document_id", docID)
			job.releaseFileData()
			job.SetOutline(docID, "", 0)
			w.finish(job, StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	o, err := w.extractor.Extract(ctx, bytes.NewReader(job.FileData()), job.Filename)
	job.releaseFileData()
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		w.finish(job, StatusFailed, "parsing")
		return
	}
	job.SetOutline(o.ID, o.Title, len(o.Headings))
	log = log.With("document_id", o.ID)

	// Phase 2: Store
	job.SetStatus(StatusStoring, "storing")
	if err := w.storeOutline(ctx, log, job, o); err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		w.finish(job, StatusFailed, "storing")
		return
	}

	log.Info("document ingested", "title", o.Title, "headings", len(o.Headings))
	w.finish(job, StatusCompleted, "done")
}

// storeOutline writes the outline, retrying transient store failures.
func (w *Worker) storeOutline(ctx context.Context, log *slog.Logger, job *Job, o *outline.Outline) error {
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		job.IncrAttempts()
		_, lastErr = w.store.PutOutline(ctx, o)
		if lastErr == nil || !IsRetryable(lastErr) || attempt == MaxRetries-1 {
			break
		}
		log.Warn("retryable store error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func (w *Worker) finish(job *Job, status JobStatus, phase string) {
	job.SetStatus(status, phase)
	w.metrics.ObserveJob(string(status))
}
