// Package pipeline enforces the lead lifecycle: legal status edges plus the
// readiness, payment and approval guards attached to some of them.
package pipeline

import (
	"context"
	"time"

	"dealership_backend/internal/leads/domain"
	"dealership_backend/internal/leads/readiness"

	"github.com/google/uuid"
)

// PaymentValidator checks that a purchase is fully funded.
type PaymentValidator interface {
	Validate(ctx context.Context, lead domain.Lead, pc domain.PaymentContext) error
}

// QuorumChecker decides whether recorded approvers span enough groups.
type QuorumChecker interface {
	HasQuorum(ctx context.Context, approvers []uuid.UUID) (bool, error)
}

// TransitionContext carries caller-supplied data for guarded edges.
type TransitionContext struct {
	Payment *domain.PaymentContext
}

// Machine evaluates transitions. It never writes; callers persist the
// returned lead with its version.
type Machine struct {
	payments PaymentValidator
	now      func() time.Time
}

func New(payments PaymentValidator) *Machine {
	return &Machine{payments: payments, now: time.Now}
}

// IsPurchase reports whether moving lead to target commits a purchase.
func IsPurchase(lead domain.Lead, target domain.Status, tc TransitionContext) bool {
	if !domain.EntersStock(lead.Status, target) {
		return false
	}
	return tc.Payment != nil || (lead.Type == domain.LeadTypePurchase && target == domain.StatusInventory)
}

// CanTransition runs the edge and readiness guards without payment checks.
func (m *Machine) CanTransition(lead domain.Lead, target domain.Status) error {
	if !domain.IsValidTransition(lead.Status, target) {
		return domain.ErrInvalidTransition(lead.Status, target)
	}

	switch {
	case domain.EntersStock(lead.Status, target):
		if r := readiness.Inspection(lead); !r.IsComplete() {
			return domain.ErrNotReady(r.BlockingStep, r.Percentage)
		}
	case domain.EntersSale(lead.Status, target):
		if r := readiness.Inventory(lead); !r.IsComplete() {
			return domain.ErrNotReady(r.BlockingStep, r.Percentage)
		}
	}

	return nil
}

// Transition returns a copy of lead in the target status when every guard
// passes. Only the status changes.
func (m *Machine) Transition(ctx context.Context, lead domain.Lead, target domain.Status, tc TransitionContext) (domain.Lead, error) {
	if err := m.CanTransition(lead, target); err != nil {
		return domain.Lead{}, err
	}

	if IsPurchase(lead, target, tc) {
		var pc domain.PaymentContext
		if tc.Payment != nil {
			pc = *tc.Payment
		}
		if err := m.payments.Validate(ctx, lead, pc); err != nil {
			return domain.Lead{}, err
		}
	}

	next := lead.Clone()
	next.Status = target
	return next, nil
}

// CompleteApproval moves a pending approval to approved once the recorded
// approvers reach quorum.
func (m *Machine) CompleteApproval(ctx context.Context, lead domain.Lead, checker QuorumChecker) (domain.Lead, error) {
	if lead.Approval.Status != domain.ApprovalPending {
		return domain.Lead{}, domain.ErrInvalidApprovalTransition(lead.Approval.Status, domain.ApprovalApproved)
	}

	ok, err := checker.HasQuorum(ctx, lead.Approval.Approvers)
	if err != nil {
		return domain.Lead{}, err
	}
	if !ok {
		return domain.Lead{}, domain.ErrApprovalPending(len(lead.Approval.Approvers))
	}

	next := lead.Clone()
	approvedAt := m.now().UTC()
	next.Approval.Status = domain.ApprovalApproved
	next.Approval.ApprovedAt = &approvedAt
	return next, nil
}
