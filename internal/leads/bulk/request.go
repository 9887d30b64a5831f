package bulk

import (
	"fmt"
	"strings"

	"dealership_backend/internal/leads/domain"
	"dealership_backend/internal/leads/payment"
	"dealership_backend/platform/apperr"

	"github.com/google/uuid"
)

// MaxLeadsPerRequest bounds one bulk request.
const MaxLeadsPerRequest = 1000

// Action is the operation applied to every item of a request.
type Action string

const (
	ActionStatus   Action = "status"
	ActionPurchase Action = "purchase"
	ActionImport   Action = "import"
	ActionPriority Action = "priority"
)

// ParseAction converts user input into an Action.
func ParseAction(raw string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(raw))); a {
	case ActionStatus, ActionPurchase, ActionImport, ActionPriority:
		return a, nil
	default:
		return "", apperr.Validation("unknown bulk action: " + raw)
	}
}

// Request is one bulk invocation. It is JSON encoded when run as a job.
type Request struct {
	Action   Action                        `json:"action"`
	LeadIDs  []uuid.UUID                   `json:"leadIds,omitempty"`
	Status   domain.Status                 `json:"status,omitempty"`
	Payments map[uuid.UUID]payment.Details `json:"payments,omitempty"`
	Priority domain.Priority               `json:"priority,omitempty"`
	CSV      string                        `json:"csv,omitempty"`
	ActorID  *uuid.UUID                    `json:"actorId,omitempty"`
	JobID    string                        `json:"jobId,omitempty"`
}

// Validate rejects malformed requests before any lead is touched.
func (r Request) Validate() error {
	if _, err := ParseAction(string(r.Action)); err != nil {
		return err
	}

	if r.Action == ActionImport {
		if strings.TrimSpace(r.CSV) == "" {
			return apperr.Validation("csv content is required for import")
		}
		return nil
	}

	if len(r.LeadIDs) == 0 {
		return apperr.Validation("leadIds must not be empty")
	}
	if len(r.LeadIDs) > MaxLeadsPerRequest {
		return apperr.Validation(fmt.Sprintf("at most %d leads per request", MaxLeadsPerRequest))
	}
	for _, id := range r.LeadIDs {
		if id == uuid.Nil {
			return apperr.Validation("leadIds must not contain empty ids")
		}
	}

	switch r.Action {
	case ActionStatus:
		if _, err := domain.ParseStatus(string(r.Status)); err != nil {
			return err
		}
	case ActionPriority:
		if _, err := domain.ParsePriority(string(r.Priority)); err != nil {
			return err
		}
	}
	return nil
}
