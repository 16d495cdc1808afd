package jobs

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/fern/pkg/models"
	fernredis "github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	defaultKeyPrefix = "fern:job:"
	defaultJobTTL    = 24 * time.Hour

	fieldTotal     = "total"
	fieldProcessed = "processed"
	fieldStatus    = "status"
	fieldError     = "error"
	fieldStartedAt = "started_at"
	fieldUpdatedAt = "updated_at"
)

// RedisStore keeps progress in a Redis hash per job so any replica can answer
// a poll. Keys expire ttl after the last write.
type RedisStore struct {
	rdb       *redis.Client
	keyPrefix string
	ttl       time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. A zero ttl uses 24 hours.
func NewRedisStore(client *fernredis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultJobTTL
	}
	return &RedisStore{
		rdb:       client.Redis(),
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
	}
}

func (s *RedisStore) key(jobID string) string {
	return s.keyPrefix + jobID
}

func (s *RedisStore) Create(ctx context.Context, jobID string, total int) error {
	ctx, span := tracing.StartSpan(ctx, "jobs.RedisStore.Create")
	defer span.End()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	key := s.key(jobID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldTotal, total,
			fieldProcessed, 0,
			fieldStatus, string(models.JobStatusPending),
			fieldStartedAt, now,
			fieldUpdatedAt, now,
		)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
	}
	return err
}

func (s *RedisStore) Start(ctx context.Context, jobID string) error {
	return s.set(ctx, jobID, fieldStatus, string(models.JobStatusRunning))
}

func (s *RedisStore) Advance(ctx context.Context, jobID string, processed int) error {
	return s.set(ctx, jobID, fieldProcessed, processed)
}

func (s *RedisStore) Complete(ctx context.Context, jobID string, processed int) error {
	return s.set(ctx, jobID, fieldProcessed, processed, fieldStatus, string(models.JobStatusCompleted))
}

func (s *RedisStore) Fail(ctx context.Context, jobID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.set(ctx, jobID, fieldStatus, string(models.JobStatusError), fieldError, msg)
}

// set writes fields on an existing job and refreshes its expiry
func (s *RedisStore) set(ctx context.Context, jobID string, values ...any) error {
	ctx, span := tracing.StartSpan(ctx, "jobs.RedisStore.set")
	defer span.End()

	key := s.key(jobID)
	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		tracing.RecordError(span, err)
		return err
	}
	if exists == 0 {
		return ErrJobNotFound
	}

	values = append(values, fieldUpdatedAt, time.Now().UTC().Format(time.RFC3339Nano))
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values...)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
	}
	return err
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (*models.JobProgress, error) {
	ctx, span := tracing.StartSpan(ctx, "jobs.RedisStore.Get")
	defer span.End()

	fields, err := s.rdb.HGetAll(ctx, s.key(jobID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		tracing.RecordError(span, err)
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrJobNotFound
	}

	p := &models.JobProgress{
		JobID:  jobID,
		Status: models.JobStatus(fields[fieldStatus]),
		Error:  fields[fieldError],
	}
	p.Total, _ = strconv.Atoi(fields[fieldTotal])
	p.Processed, _ = strconv.Atoi(fields[fieldProcessed])
	p.StartedAt, _ = time.Parse(time.RFC3339Nano, fields[fieldStartedAt])
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt])
	return p, nil
}
