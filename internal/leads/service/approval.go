package service

import (
	"context"
	"time"

	"dealership_backend/internal/events"
	"dealership_backend/internal/leads/domain"
	"dealership_backend/platform/apperr"

	"github.com/google/uuid"
)

// ApprovalOutcome reports the approval record after a sign-off.
type ApprovalOutcome struct {
	Lead   domain.Lead `json:"lead"`
	Quorum bool        `json:"quorum"`
}

// SubmitForApproval opens the dual sign-off of a lead's purchase order.
func (s *Service) SubmitForApproval(ctx context.Context, actorID, id uuid.UUID) (domain.Lead, error) {
	_, after, err := s.mutate(ctx, id, func(lead domain.Lead) (domain.LeadPatch, error) {
		if lead.Status.IsPurchased() || lead.Status.IsTerminal() {
			return domain.LeadPatch{}, apperr.Precondition(domain.CodeInvalidTransition,
				"approval can only be requested before the purchase").
				WithDetails(map[string]string{"status": string(lead.Status)})
		}
		if lead.Approval.Status != domain.ApprovalNone {
			return domain.LeadPatch{}, domain.ErrInvalidApprovalTransition(lead.Approval.Status, domain.ApprovalPending)
		}

		submittedAt := time.Now().UTC()
		approval := domain.Approval{
			Status:      domain.ApprovalPending,
			Approvers:   []uuid.UUID{},
			SubmittedAt: &submittedAt,
		}
		return domain.LeadPatch{Approval: &approval}, nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	s.publishApprovalChanged(ctx, actorID, after)
	return after, nil
}

// RecordApproval adds actorID as an approver of a pending lead. Once the
// recorded approvers reach quorum the approval completes in the same write.
func (s *Service) RecordApproval(ctx context.Context, actorID, id uuid.UUID) (ApprovalOutcome, error) {
	if actorID == uuid.Nil {
		return ApprovalOutcome{}, apperr.Unauthorized("approver identity is required")
	}
	if s.quorum == nil {
		return ApprovalOutcome{}, apperr.Internal("approval quorum checker not configured")
	}

	quorum := false
	_, after, err := s.mutate(ctx, id, func(lead domain.Lead) (domain.LeadPatch, error) {
		quorum = false
		if lead.Approval.Status != domain.ApprovalPending {
			return domain.LeadPatch{}, domain.ErrInvalidApprovalTransition(lead.Approval.Status, domain.ApprovalApproved)
		}

		next := lead.Clone()
		if !next.Approval.HasApprover(actorID) {
			next.Approval.Approvers = append(next.Approval.Approvers, actorID)
		}

		completed, err := s.machine.CompleteApproval(ctx, next, s.quorum)
		switch {
		case err == nil:
			quorum = true
			next = completed
		case apperr.CodeOf(err) != domain.CodeApprovalPending:
			return domain.LeadPatch{}, err
		}
		return domain.LeadPatch{Approval: &next.Approval}, nil
	})
	if err != nil {
		return ApprovalOutcome{}, err
	}

	s.publishApprovalChanged(ctx, actorID, after)
	return ApprovalOutcome{Lead: after, Quorum: quorum}, nil
}

// HasApprovalQuorum reports whether the recorded approvers of the lead span
// enough approval groups.
func (s *Service) HasApprovalQuorum(ctx context.Context, id uuid.UUID) (bool, error) {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if s.quorum == nil {
		return false, apperr.Internal("approval quorum checker not configured")
	}
	return s.quorum.HasQuorum(ctx, lead.Approval.Approvers)
}

func (s *Service) publishApprovalChanged(ctx context.Context, actorID uuid.UUID, lead domain.Lead) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, events.LeadApprovalChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Status:    string(lead.Approval.Status),
		ActorID:   actorID,
		Approvers: len(lead.Approval.Approvers),
	})
}
