package service

import (
	"context"

	"dealership_backend/internal/events"
	"dealership_backend/internal/leads/repository"
)

// Activity actions written to the lead audit trail.
const (
	ActivityStatusChanged      = "status_changed"
	ActivityApprovalChanged    = "approval_changed"
	ActivityAttachmentUploaded = "attachment_uploaded"
	ActivityCreated            = "created"
)

// RegisterSubscriptions records pipeline events in the lead audit trail.
func (s *Service) RegisterSubscriptions(bus events.Bus) {
	bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(s.onLeadCreated))
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), events.HandlerFunc(s.onStatusChanged))
	bus.Subscribe(events.LeadApprovalChanged{}.EventName(), events.HandlerFunc(s.onApprovalChanged))
	bus.Subscribe(events.AttachmentUploaded{}.EventName(), events.HandlerFunc(s.onAttachmentUploaded))
}

func (s *Service) onLeadCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadCreated)
	if !ok {
		return nil
	}
	return s.repo.AddActivity(ctx, repository.ActivityParams{
		LeadID:   e.LeadID,
		Action:   ActivityCreated,
		Metadata: map[string]any{"source": e.Source},
	})
}

func (s *Service) onStatusChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadStatusChanged)
	if !ok {
		return nil
	}
	metadata := map[string]any{"from": e.From, "to": e.To, "purchase": e.Purchase}
	if e.BulkJobID != "" {
		metadata["bulkJobId"] = e.BulkJobID
	}
	return s.repo.AddActivity(ctx, repository.ActivityParams{
		LeadID:   e.LeadID,
		ActorID:  e.ActorID,
		Action:   ActivityStatusChanged,
		Metadata: metadata,
	})
}

func (s *Service) onApprovalChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadApprovalChanged)
	if !ok {
		return nil
	}
	return s.repo.AddActivity(ctx, repository.ActivityParams{
		LeadID:   e.LeadID,
		ActorID:  actorRef(e.ActorID),
		Action:   ActivityApprovalChanged,
		Metadata: map[string]any{"status": e.Status, "approvers": e.Approvers},
	})
}

func (s *Service) onAttachmentUploaded(ctx context.Context, event events.Event) error {
	e, ok := event.(events.AttachmentUploaded)
	if !ok {
		return nil
	}
	return s.repo.AddActivity(ctx, repository.ActivityParams{
		LeadID:   e.LeadID,
		Action:   ActivityAttachmentUploaded,
		Metadata: map[string]any{"attachmentId": e.AttachmentID.String(), "category": e.Category},
	})
}
