package domain

import (
	"strings"

	"dealership_backend/platform/apperr"
)

// Status is the lifecycle position of a lead.
type Status string

const (
	StatusNew         Status = "new"
	StatusNegotiation Status = "negotiation"
	StatusInspection  Status = "inspection"
	StatusInventory   Status = "inventory"
	StatusConsignment Status = "consignment"
	StatusSale        Status = "sale"
	StatusSold        Status = "sold"
	StatusCancelled   Status = "cancelled"
)

var knownStatuses = map[Status]struct{}{
	StatusNew:         {},
	StatusNegotiation: {},
	StatusInspection:  {},
	StatusInventory:   {},
	StatusConsignment: {},
	StatusSale:        {},
	StatusSold:        {},
	StatusCancelled:   {},
}

// ParseStatus converts user input into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownStatuses[s]; !ok {
		return "", apperr.Validation("unknown lead status: " + raw)
	}
	return s, nil
}

// IsIntake reports whether a lead may be created directly in this status.
func (s Status) IsIntake() bool {
	return s == StatusNew || s == StatusCancelled
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusSold || s == StatusCancelled
}

// IsPurchased reports whether the vehicle has been bought or consigned,
// after which investor allocations are frozen.
func (s Status) IsPurchased() bool {
	switch s {
	case StatusInventory, StatusConsignment, StatusSale, StatusSold:
		return true
	default:
		return false
	}
}

// LeadType tells how the dealership acquires or disposes of the vehicle.
type LeadType string

const (
	LeadTypePurchase    LeadType = "purchase"
	LeadTypeConsignment LeadType = "consignment"
	LeadTypeSale        LeadType = "sale"
)

// ParseLeadType converts user input into a LeadType.
func ParseLeadType(raw string) (LeadType, error) {
	switch t := LeadType(strings.ToLower(strings.TrimSpace(raw))); t {
	case LeadTypePurchase, LeadTypeConsignment, LeadTypeSale:
		return t, nil
	default:
		return "", apperr.Validation("unknown lead type: " + raw)
	}
}

// PurchaseTarget is the status a lead of this type enters when bought.
func (t LeadType) PurchaseTarget() Status {
	if t == LeadTypeConsignment {
		return StatusConsignment
	}
	return StatusInventory
}

// AttachmentCategory tags an uploaded document.
type AttachmentCategory string

const (
	CategoryInspectionReport         AttachmentCategory = "inspectionReport"
	CategoryCarPictures              AttachmentCategory = "carPictures"
	CategoryRegistrationCardNew      AttachmentCategory = "registrationCardNew"
	CategoryRegistrationCardCustomer AttachmentCategory = "registrationCardCustomer"
	CategoryOther                    AttachmentCategory = "other"
)

// ParseAttachmentCategory matches categories case-insensitively.
func ParseAttachmentCategory(raw string) (AttachmentCategory, error) {
	trimmed := strings.TrimSpace(raw)
	for _, c := range []AttachmentCategory{
		CategoryInspectionReport,
		CategoryCarPictures,
		CategoryRegistrationCardNew,
		CategoryRegistrationCardCustomer,
		CategoryOther,
	} {
		if strings.EqualFold(trimmed, string(c)) {
			return c, nil
		}
	}
	return "", apperr.Validation("unknown attachment category: " + raw)
}

// ApprovalStatus tracks the dual sign-off of a purchase order.
type ApprovalStatus string

const (
	ApprovalNone     ApprovalStatus = "none"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
)

// ParseApprovalStatus converts stored values; blank means none.
func ParseApprovalStatus(raw string) (ApprovalStatus, error) {
	switch s := ApprovalStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return ApprovalNone, nil
	case ApprovalNone, ApprovalPending, ApprovalApproved:
		return s, nil
	default:
		return "", apperr.Validation("unknown approval status: " + raw)
	}
}

// IsSubmitted reports whether the lead was sent for approval.
func (s ApprovalStatus) IsSubmitted() bool {
	return s == ApprovalPending || s == ApprovalApproved
}

// ModeOfPayment is how one investor paid their share.
type ModeOfPayment string

const (
	PaymentCash         ModeOfPayment = "cash"
	PaymentBankTransfer ModeOfPayment = "bank_transfer"
	PaymentCheque       ModeOfPayment = "cheque"
	PaymentCard         ModeOfPayment = "card"
)

// ParseModeOfPayment accepts the canonical values plus a few spellings
// used by the sales team.
func ParseModeOfPayment(raw string) (ModeOfPayment, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	switch normalized {
	case "cash":
		return PaymentCash, nil
	case "bank_transfer", "transfer", "bank":
		return PaymentBankTransfer, nil
	case "cheque", "check":
		return PaymentCheque, nil
	case "card", "credit_card", "debit_card":
		return PaymentCard, nil
	default:
		return "", apperr.Validation("unknown mode of payment: " + raw)
	}
}

// Priority orders leads in work queues.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority converts user input into a Priority.
func ParsePriority(raw string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(raw))); p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return p, nil
	default:
		return "", apperr.Validation("unknown priority: " + raw)
	}
}
