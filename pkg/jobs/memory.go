package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// MemoryStore keeps progress in process memory. Progress is lost on restart
// and is not shared between replicas; use RedisStore for that.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.JobProgress
	now  func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*models.JobProgress),
		now:  time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, jobID string, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[jobID]; ok {
		return fmt.Errorf("job %s already exists", jobID)
	}
	now := s.now().UTC()
	s.jobs[jobID] = &models.JobProgress{
		JobID:     jobID,
		Total:     total,
		Status:    models.JobStatusPending,
		StartedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (s *MemoryStore) Start(_ context.Context, jobID string) error {
	return s.update(jobID, func(p *models.JobProgress) {
		p.Status = models.JobStatusRunning
	})
}

func (s *MemoryStore) Advance(_ context.Context, jobID string, processed int) error {
	return s.update(jobID, func(p *models.JobProgress) {
		p.Processed = processed
	})
}

func (s *MemoryStore) Complete(_ context.Context, jobID string, processed int) error {
	return s.update(jobID, func(p *models.JobProgress) {
		p.Processed = processed
		p.Status = models.JobStatusCompleted
	})
}

func (s *MemoryStore) Fail(_ context.Context, jobID string, cause error) error {
	return s.update(jobID, func(p *models.JobProgress) {
		p.Status = models.JobStatusError
		if cause != nil {
			p.Error = cause.Error()
		}
	})
}

func (s *MemoryStore) Get(_ context.Context, jobID string) (*models.JobProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	out := *p
	return &out, nil
}

func (s *MemoryStore) update(jobID string, fn func(p *models.JobProgress)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	fn(p)
	p.UpdatedAt = s.now().UTC()
	return nil
}
