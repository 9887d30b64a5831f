package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"dealership_backend/internal/leads/bulk"

	"github.com/redis/go-redis/v9"
)

const (
	jobKeyPrefix  = "bulk:job:"
	defaultJobTTL = 24 * time.Hour
)

// JobStore keeps bulk job state in redis so the API can report on work the
// worker process runs.
type JobStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
	now func() time.Time
}

func NewJobStore(rdb redis.UniversalClient, ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = defaultJobTTL
	}
	return &JobStore{rdb: rdb, ttl: ttl, now: time.Now}
}

// Create records a queued job.
func (s *JobStore) Create(ctx context.Context, id string, action bulk.Action) (bulk.Job, error) {
	now := s.now().UTC()
	job := bulk.Job{
		ID:        id,
		Action:    action,
		Status:    bulk.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return job, s.put(ctx, job)
}

func (s *JobStore) Get(ctx context.Context, id string) (bulk.Job, error) {
	raw, err := s.rdb.Get(ctx, jobKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return bulk.Job{}, bulk.ErrJobNotFound
	}
	if err != nil {
		return bulk.Job{}, err
	}

	var job bulk.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return bulk.Job{}, err
	}
	return job, nil
}

func (s *JobStore) MarkRunning(ctx context.Context, id string) error {
	return s.update(ctx, id, func(job *bulk.Job) {
		job.Status = bulk.JobRunning
	})
}

func (s *JobStore) Complete(ctx context.Context, id string, result bulk.Result) error {
	return s.update(ctx, id, func(job *bulk.Job) {
		job.Status = bulk.JobCompleted
		job.Result = &result
	})
}

func (s *JobStore) Fail(ctx context.Context, id, message, code string) error {
	return s.update(ctx, id, func(job *bulk.Job) {
		job.Status = bulk.JobFailed
		job.Error = message
		job.Code = code
	})
}

func (s *JobStore) update(ctx context.Context, id string, fn func(job *bulk.Job)) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	fn(&job)
	job.UpdatedAt = s.now().UTC()
	return s.put(ctx, job)
}

func (s *JobStore) put(ctx context.Context, job bulk.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, jobKeyPrefix+job.ID, data, s.ttl).Err()
}
