package service

import (
	"context"
	"errors"

	"dealership_backend/internal/leads/bulk"
	"dealership_backend/platform/apperr"

	"github.com/google/uuid"
)

// ExecuteBulk runs req synchronously and returns the per-item summary.
func (s *Service) ExecuteBulk(ctx context.Context, actorID uuid.UUID, req bulk.Request) (bulk.Result, error) {
	req.ActorID = actorRef(actorID)
	return s.executor.Execute(ctx, req)
}

// EnqueueBulk validates req and hands it to the background worker.
func (s *Service) EnqueueBulk(ctx context.Context, actorID uuid.UUID, req bulk.Request) (bulk.Job, error) {
	if s.jobs == nil {
		return bulk.Job{}, apperr.BadRequest("background bulk jobs are not enabled")
	}
	if err := req.Validate(); err != nil {
		return bulk.Job{}, err
	}
	req.ActorID = actorRef(actorID)
	return s.jobs.EnqueueBulk(ctx, req)
}

// BulkJob returns the state and, once finished, the result of a job.
func (s *Service) BulkJob(ctx context.Context, id string) (bulk.Job, error) {
	if s.jobs == nil {
		return bulk.Job{}, apperr.NotFound("bulk job not found")
	}
	job, err := s.jobs.BulkJob(ctx, id)
	if errors.Is(err, bulk.ErrJobNotFound) {
		return bulk.Job{}, apperr.NotFound("bulk job not found")
	}
	return job, err
}
