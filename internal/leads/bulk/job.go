package bulk

import (
	"errors"
	"time"
)

// ErrJobNotFound is returned for unknown or expired job ids.
var ErrJobNotFound = errors.New("bulk job not found")

// JobStatus is the lifecycle of an asynchronous bulk run.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job tracks a bulk request executed by the background worker.
type Job struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Status    JobStatus `json:"status"`
	Result    *Result   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	Code      string    `json:"code,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
