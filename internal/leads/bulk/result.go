package bulk

import (
	"context"
	"errors"

	"dealership_backend/internal/leads/domain"
	"dealership_backend/platform/apperr"

	"github.com/google/uuid"
)

// Outcome of a single item.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Skip reasons.
const (
	ReasonNotReady  = domain.CodeNotReady
	ReasonDuplicate = "duplicate"
)

// Item is the outcome for one lead id or one CSV line.
type Item struct {
	LeadID       *uuid.UUID `json:"leadId,omitempty"`
	Line         int        `json:"line,omitempty"`
	Outcome      Outcome    `json:"outcome"`
	Reason       string     `json:"reason,omitempty"`
	BlockingStep string     `json:"blockingStep,omitempty"`
	Error        string     `json:"error,omitempty"`
	Code         string     `json:"code,omitempty"`
}

// Result summarizes a bulk run. Attempted counts items that reached a
// write, so Attempted == Succeeded + Failed.
type Result struct {
	Action    Action `json:"action"`
	JobID     string `json:"jobId,omitempty"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Items     []Item `json:"items"`
}

func (r *Result) tally() {
	r.Attempted, r.Succeeded, r.Skipped, r.Failed = 0, 0, 0, 0
	for _, item := range r.Items {
		switch item.Outcome {
		case OutcomeSucceeded:
			r.Succeeded++
		case OutcomeSkipped:
			r.Skipped++
		case OutcomeFailed:
			r.Failed++
		}
	}
	r.Attempted = r.Succeeded + r.Failed
}

func leadRef(id uuid.UUID) *uuid.UUID {
	return &id
}

func succeededItem(id uuid.UUID) Item {
	return Item{LeadID: leadRef(id), Outcome: OutcomeSucceeded}
}

func skippedItem(id uuid.UUID, reason string) Item {
	return Item{LeadID: leadRef(id), Outcome: OutcomeSkipped, Reason: reason}
}

func failedItem(id uuid.UUID, err error) Item {
	msg, code := describe(err)
	return Item{LeadID: leadRef(id), Outcome: OutcomeFailed, Error: msg, Code: code}
}

// describe turns an item error into a caller-facing message and code.
func describe(err error) (string, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "lead not found", ""
	case errors.Is(err, domain.ErrVersionConflict):
		return "lead was modified concurrently", domain.CodeVersionConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "bulk operation was cancelled", ""
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Message, appErr.Code
	}
	return "unexpected error", ""
}
