package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/importer"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ErrJobRunning is returned when results are requested before the job finished
var ErrJobRunning = errors.New("job is still running")

// Resolver resolves a batch of cards
type Resolver interface {
	ResolveBatch(ctx context.Context, cards []models.ProvisionalCard, opts ...resolution.BatchOption) ([]resolution.ResolutionRecord, error)
}

// RunnerOptions tunes a Runner
type RunnerOptions struct {
	// ProgressInterval is how many cards are matched between progress writes
	ProgressInterval int
	// ResultTTL is how long finished results stay in memory. Zero keeps them
	// until the process exits.
	ResultTTL time.Duration
}

// Limits bound what one import may submit. Zero disables a limit.
type Limits struct {
	MaxRows        int
	MaxUploadBytes int64
}

type jobResult struct {
	done    chan struct{}
	records []resolution.ResolutionRecord
	rows    []models.ImportRow
	err     error
}

// Runner executes one job per submitted batch. Jobs are detached from the
// submitting request and are not cancelled when it ends.
type Runner struct {
	logger   ectologger.Logger
	resolver Resolver
	store    Store
	opts     RunnerOptions
	results  sync.Map
}

func NewRunner(logger ectologger.Logger, resolver Resolver, store Store, opts RunnerOptions) *Runner {
	return &Runner{
		logger:   logger,
		resolver: resolver,
		store:    store,
		opts:     opts,
	}
}

// Store returns the progress store the runner writes to
func (r *Runner) Store() Store {
	return r.store
}

// SubmitRows merges duplicate rows and starts a job for the merged cards.
// Results are parallel to MergedRows.
func (r *Runner) SubmitRows(ctx context.Context, rows []models.ImportRow) (string, error) {
	merged := importer.MergeDuplicateRows(rows)
	return r.submit(ctx, merged, importer.Cards(merged))
}

// Submit starts a job for cards and returns its id
func (r *Runner) Submit(ctx context.Context, cards []models.ProvisionalCard) (string, error) {
	return r.submit(ctx, nil, cards)
}

func (r *Runner) submit(ctx context.Context, rows []models.ImportRow, cards []models.ProvisionalCard) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "jobs.Runner.Submit")
	defer span.End()

	jobID := uuid.New().String()
	if err := r.store.Create(ctx, jobID, len(cards)); err != nil {
		tracing.RecordError(span, err)
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	res := &jobResult{done: make(chan struct{}), rows: rows}
	r.results.Store(jobID, res)

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"job_id": jobID,
		"cards":  len(cards),
	}).Info("Submitted resolution job")

	go r.run(context.WithoutCancel(ctx), jobID, cards, res)
	return jobID, nil
}

func (r *Runner) run(ctx context.Context, jobID string, cards []models.ProvisionalCard, res *jobResult) {
	ctx, span := tracing.StartSpan(ctx, "jobs.Runner.run")
	defer span.End()
	defer close(res.done)

	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()

	log := r.logger.WithContext(ctx).WithField("job_id", jobID)
	if err := r.store.Start(ctx, jobID); err != nil {
		log.WithError(err).Warn("Failed to mark job as running")
	}

	progress := func(ctx context.Context, processed int) {
		if err := r.store.Advance(ctx, jobID, processed); err != nil {
			log.WithError(err).Warn("Failed to publish job progress")
		}
	}

	start := time.Now()
	records, err := r.resolver.ResolveBatch(ctx, cards, resolution.WithProgress(progress, r.opts.ProgressInterval))
	if err != nil {
		res.err = err
		tracing.RecordError(span, err)
		metrics.JobsTotal.WithLabelValues(string(models.JobStatusError)).Inc()
		log.WithError(err).Error("Resolution job failed")
		if err := r.store.Fail(ctx, jobID, err); err != nil {
			log.WithError(err).Error("Failed to mark job as failed")
		}
		r.expire(jobID)
		return
	}

	res.records = records
	metrics.JobsTotal.WithLabelValues(string(models.JobStatusCompleted)).Inc()
	if err := r.store.Complete(ctx, jobID, len(cards)); err != nil {
		log.WithError(err).Error("Failed to mark job as completed")
	}
	log.WithFields(map[string]any{
		"cards":    len(cards),
		"duration": time.Since(start).String(),
	}).Info("Resolution job completed")
	r.expire(jobID)
}

func (r *Runner) expire(jobID string) {
	if r.opts.ResultTTL <= 0 {
		return
	}
	time.AfterFunc(r.opts.ResultTTL, func() {
		r.results.Delete(jobID)
	})
}

// Results returns the records of a finished job. It returns ErrJobRunning
// while the job is in progress, the job's error if it failed, and
// ErrJobNotFound if this runner does not hold the job.
func (r *Runner) Results(jobID string) ([]resolution.ResolutionRecord, error) {
	res, ok := r.lookup(jobID)
	if !ok {
		return nil, ErrJobNotFound
	}
	select {
	case <-res.done:
		return res.records, res.err
	default:
		return nil, ErrJobRunning
	}
}

// MergedRows returns the merged import rows a row job resolved, parallel to
// its results
func (r *Runner) MergedRows(jobID string) ([]models.ImportRow, bool) {
	res, ok := r.lookup(jobID)
	if !ok {
		return nil, false
	}
	return res.rows, true
}

// Wait blocks until the job finishes or ctx is done
func (r *Runner) Wait(ctx context.Context, jobID string) ([]resolution.ResolutionRecord, error) {
	res, ok := r.lookup(jobID)
	if !ok {
		return nil, ErrJobNotFound
	}
	select {
	case <-res.done:
		return res.records, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Runner) lookup(jobID string) (*jobResult, bool) {
	v, ok := r.results.Load(jobID)
	if !ok {
		return nil, false
	}
	return v.(*jobResult), true
}
