// Package jobs runs resolution batches in the background and publishes their
// progress so clients can poll a job id.
package jobs

import (
	"context"
	"errors"

	"github.com/Ramsey-B/fern/pkg/models"
)

// ErrJobNotFound is returned by Get for an unknown or expired job id
var ErrJobNotFound = errors.New("job not found")

// Store records job progress. Each job has one writer (its runner goroutine)
// and any number of readers.
type Store interface {
	Create(ctx context.Context, jobID string, total int) error
	Start(ctx context.Context, jobID string) error
	Advance(ctx context.Context, jobID string, processed int) error
	Complete(ctx context.Context, jobID string, processed int) error
	// Fail marks the job as errored. Processed keeps its last value.
	Fail(ctx context.Context, jobID string, cause error) error
	Get(ctx context.Context, jobID string) (*models.JobProgress, error)
}
