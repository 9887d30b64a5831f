package scheduler

import (
	"context"
	"errors"
	"fmt"

	"dealership_backend/internal/leads/bulk"
	"dealership_backend/platform/apperr"
	"dealership_backend/platform/config"
	"dealership_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// BulkRunner executes a bulk request.
type BulkRunner interface {
	Execute(ctx context.Context, req bulk.Request) (bulk.Result, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner BulkRunner
	jobs   *JobStore
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner BulkRunner, jobs *JobStore, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		runner: runner,
		jobs:   jobs,
		log:    log,
	}

	mux.HandleFunc(TaskBulkOperation, w.handleBulkOperation)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleBulkOperation(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseBulkOperationPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	ctx = context.WithValue(ctx, logger.JobIDKey, payload.JobID)
	if err := w.jobs.MarkRunning(ctx, payload.JobID); err != nil {
		if errors.Is(err, bulk.ErrJobNotFound) {
			w.log.WithContext(ctx).Warn("bulk job state expired before run")
			return nil
		}
		return err
	}

	req := payload.Request
	req.JobID = payload.JobID
	result, err := w.runner.Execute(ctx, req)
	if err != nil {
		w.log.WithContext(ctx).Error("bulk job rejected", "action", req.Action, "error", err)
		message := "bulk operation failed"
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
		return w.jobs.Fail(context.WithoutCancel(ctx), payload.JobID, message, apperr.CodeOf(err))
	}

	return w.jobs.Complete(context.WithoutCancel(ctx), payload.JobID, result)
}
