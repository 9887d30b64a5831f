package domain

import (
	"fmt"

	"dealership_backend/platform/apperr"

	"github.com/google/uuid"
)

// Guard violation codes returned to API clients.
const (
	CodeInvalidTransition = "invalid_transition"
	CodeNotReady          = "not_ready"
	CodeApprovalPending   = "approval_pending"
	CodeIncompletePayment = "incomplete_payment"
	CodeNoInvestors       = "no_investors"
	CodeVersionConflict   = "version_conflict"
	CodeAllocationsLocked = "allocations_locked"
)

type TransitionDetails struct {
	From Status `json:"from"`
	To   Status `json:"to"`
}

type ApprovalTransitionDetails struct {
	From ApprovalStatus `json:"fromApproval"`
	To   ApprovalStatus `json:"toApproval"`
}

type NotReadyDetails struct {
	BlockingStep string `json:"blockingStep"`
	Percentage   int    `json:"percentage"`
}

type IncompletePaymentDetails struct {
	InvestorID uuid.UUID `json:"investorId"`
	Reason     string    `json:"reason"`
}

func ErrInvalidTransition(from, to Status) *apperr.Error {
	return apperr.Precondition(CodeInvalidTransition, fmt.Sprintf("cannot move lead from %s to %s", from, to)).
		WithDetails(TransitionDetails{From: from, To: to})
}

// ErrInvalidApprovalTransition rejects a move of the approval record, which
// is tracked apart from the lead status.
func ErrInvalidApprovalTransition(from, to ApprovalStatus) *apperr.Error {
	return apperr.Precondition(CodeInvalidTransition, fmt.Sprintf("cannot move approval from %s to %s", from, to)).
		WithDetails(ApprovalTransitionDetails{From: from, To: to})
}

func ErrNotReady(blockingStep string, percentage int) *apperr.Error {
	return apperr.Precondition(CodeNotReady, fmt.Sprintf("lead is %d%% ready, blocked at %q", percentage, blockingStep)).
		WithDetails(NotReadyDetails{BlockingStep: blockingStep, Percentage: percentage})
}

func ErrApprovalPending(approvers int) *apperr.Error {
	return apperr.Precondition(CodeApprovalPending, "approval needs one approver from each approval group").
		WithDetails(map[string]int{"approvers": approvers})
}

func ErrIncompletePayment(investorID uuid.UUID, reason string) *apperr.Error {
	return apperr.Precondition(CodeIncompletePayment, fmt.Sprintf("payment for investor %s is incomplete: %s", investorID, reason)).
		WithDetails(IncompletePaymentDetails{InvestorID: investorID, Reason: reason})
}

func ErrNoInvestors() *apperr.Error {
	return apperr.Precondition(CodeNoInvestors, "lead has no investor allocations")
}

func ErrAllocationsLocked(status Status) *apperr.Error {
	return apperr.Precondition(CodeAllocationsLocked, fmt.Sprintf("investor allocations are locked once a lead is %s", status))
}

func ErrVersionConflictFor(id uuid.UUID) *apperr.Error {
	return apperr.Conflict("lead was modified concurrently, reload and retry").
		WithCode(CodeVersionConflict).
		WithDetails(map[string]string{"leadId": id.String()})
}
