// Package events names the lead pipeline events: intake, status moves,
// approvals, attachments, approval group edits and bulk runs. Subscribers
// write the activity trail.
package events

import (
	"dealership_backend/platform/events"

	"github.com/google/uuid"
)

// Bus plumbing from platform/events, so modules import one package.
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

// LeadCreated is published when a lead enters the pipeline via intake or import.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Source string    `json:"source"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStatusChanged is published after a transition has been committed.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID  `json:"leadId"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Purchase  bool       `json:"purchase"`
	ActorID   *uuid.UUID `json:"actorId,omitempty"`
	BulkJobID string     `json:"bulkJobId,omitempty"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// LeadApprovalChanged is published when a lead's approval record moves.
type LeadApprovalChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	Status    string    `json:"status"`
	ActorID   uuid.UUID `json:"actorId"`
	Approvers int       `json:"approvers"`
}

func (e LeadApprovalChanged) EventName() string { return "leads.approval.changed" }

// AttachmentUploaded is published after a file was stored for a lead.
type AttachmentUploaded struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	AttachmentID uuid.UUID `json:"attachmentId"`
	Category     string    `json:"category"`
}

func (e AttachmentUploaded) EventName() string { return "leads.attachment.uploaded" }

// =============================================================================
// Approval Group Events
// =============================================================================

// ApprovalGroupsUpdated is published after the group set was committed.
type ApprovalGroupsUpdated struct {
	BaseEvent
	Version int64     `json:"version"`
	ActorID uuid.UUID `json:"actorId"`
	Command string    `json:"command"`
	Dropped int       `json:"dropped"`
}

func (e ApprovalGroupsUpdated) EventName() string { return "approvals.groups.updated" }

// =============================================================================
// Bulk Operation Events
// =============================================================================

// BulkOperationCompleted is published once per executed bulk request.
type BulkOperationCompleted struct {
	BaseEvent
	JobID     string `json:"jobId,omitempty"`
	Action    string `json:"action"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

func (e BulkOperationCompleted) EventName() string { return "leads.bulk.completed" }
