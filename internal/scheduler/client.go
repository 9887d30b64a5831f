package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"dealership_backend/internal/leads/bulk"
	"dealership_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// bulkTaskTimeout bounds one bulk run inside the worker.
const bulkTaskTimeout = 15 * time.Minute

type Client struct {
	client *asynq.Client
	jobs   *JobStore
	queue  string
}

func NewClient(cfg config.SchedulerConfig, jobs *JobStore) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		jobs:   jobs,
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueBulk records a queued job and hands req to the worker. Bulk runs
// are not retried: items already applied would be attempted again.
func (c *Client) EnqueueBulk(ctx context.Context, req bulk.Request) (bulk.Job, error) {
	id := uuid.NewString()
	req.JobID = id

	job, err := c.jobs.Create(ctx, id, req.Action)
	if err != nil {
		return bulk.Job{}, err
	}

	task, err := NewBulkOperationTask(BulkOperationPayload{JobID: id, Request: req})
	if err != nil {
		return bulk.Job{}, err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID(id),
		asynq.MaxRetry(0),
		asynq.Timeout(bulkTaskTimeout),
	)
	if err != nil {
		_ = c.jobs.Fail(ctx, id, "failed to enqueue bulk job", "")
		return bulk.Job{}, err
	}
	return job, nil
}

// BulkJob returns the state of a previously enqueued job.
func (c *Client) BulkJob(ctx context.Context, id string) (bulk.Job, error) {
	return c.jobs.Get(ctx, id)
}

// NewRedisClient opens the redis connection used for job state.
func NewRedisClient(cfg config.SchedulerConfig) (*redis.Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, fmt.Errorf("redis url not configured")
	}
	opt, err := redisOptions(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redisOptions(redisURL, tlsInsecure)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

func redisOptions(redisURL string, tlsInsecure bool) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		opt.TLSConfig = clone
	} else if tlsInsecure {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return opt, nil
}
