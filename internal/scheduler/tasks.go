package scheduler

import (
	"encoding/json"

	"dealership_backend/internal/leads/bulk"

	"github.com/hibiken/asynq"
)

const TaskBulkOperation = "leads.bulk"

type BulkOperationPayload struct {
	JobID   string       `json:"jobId"`
	Request bulk.Request `json:"request"`
}

func NewBulkOperationTask(payload BulkOperationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBulkOperation, data), nil
}

func ParseBulkOperationPayload(task *asynq.Task) (BulkOperationPayload, error) {
	var payload BulkOperationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BulkOperationPayload{}, err
	}
	return payload, nil
}
