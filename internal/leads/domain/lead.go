// Package domain holds the lead pipeline model: the closed enumerations,
// the lead aggregate, and the transition table.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned by stores when a lead id does not exist.
	ErrNotFound = errors.New("lead not found")
	// ErrVersionConflict is returned by stores when the expected version is stale.
	ErrVersionConflict = errors.New("lead version conflict")
)

// Lead is a vehicle acquisition or sale record moving through the pipeline.
type Lead struct {
	ID                  uuid.UUID            `json:"id"`
	Type                LeadType             `json:"type"`
	Status              Status               `json:"status"`
	Version             int64                `json:"version"`
	Vehicle             VehicleInfo          `json:"vehicle"`
	Contact             ContactInfo          `json:"contact"`
	Price               PriceAnalysis        `json:"price"`
	Attachments         []Attachment         `json:"attachments"`
	Approval            Approval             `json:"approval"`
	InvestorAllocations []InvestorAllocation `json:"investorAllocations"`
	PaymentReceivedBy   string               `json:"paymentReceivedBy,omitempty"`
	JobCosting          JobCosting           `json:"jobCosting"`
	Operational         OperationalChecklist `json:"operational"`
	Financial           FinancialChecklist   `json:"financial"`
	Source              string               `json:"source,omitempty"`
	Priority            Priority             `json:"priority"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
}

type VehicleInfo struct {
	Make        string          `json:"make"`
	Model       string          `json:"model"`
	Year        int             `json:"year,omitempty"`
	Mileage     int             `json:"mileage"`
	Color       string          `json:"color,omitempty"`
	Trim        string          `json:"trim,omitempty"`
	Region      string          `json:"region,omitempty"`
	AskingPrice decimal.Decimal `json:"askingPrice"`
	VIN         string          `json:"vin,omitempty"`
}

type ContactInfo struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// PriceAnalysis holds the selling range estimated during negotiation and
// the price finally paid.
type PriceAnalysis struct {
	MinSellingPrice     *decimal.Decimal `json:"minSellingPrice,omitempty"`
	MaxSellingPrice     *decimal.Decimal `json:"maxSellingPrice,omitempty"`
	PurchasedFinalPrice *decimal.Decimal `json:"purchasedFinalPrice,omitempty"`
}

// HasSellingRange reports whether either end of the selling range is set.
func (p PriceAnalysis) HasSellingRange() bool {
	return p.MinSellingPrice != nil || p.MaxSellingPrice != nil
}

type Attachment struct {
	ID          uuid.UUID          `json:"id"`
	Category    AttachmentCategory `json:"category"`
	FileKey     string             `json:"fileKey"`
	FileName    string             `json:"fileName"`
	ContentType string             `json:"contentType"`
	SizeBytes   int64              `json:"sizeBytes"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// Approval is the dual sign-off record of a purchase order.
type Approval struct {
	Status      ApprovalStatus `json:"status"`
	Approvers   []uuid.UUID    `json:"approvers"`
	SubmittedAt *time.Time     `json:"submittedAt,omitempty"`
	ApprovedAt  *time.Time     `json:"approvedAt,omitempty"`
}

// HasApprover reports whether id already signed.
func (a Approval) HasApprover(id uuid.UUID) bool {
	for _, approver := range a.Approvers {
		if approver == id {
			return true
		}
	}
	return false
}

// InvestorAllocation is one investor's share of the purchase price.
type InvestorAllocation struct {
	InvestorID    uuid.UUID       `json:"investorId"`
	InvestorName  string          `json:"investorName,omitempty"`
	Percentage    decimal.Decimal `json:"percentage"`
	Amount        decimal.Decimal `json:"amount"`
	ModeOfPayment ModeOfPayment   `json:"modeOfPayment,omitempty"`
}

// PaymentContext is supplied by the caller when a purchase is committed.
type PaymentContext struct {
	PaymentReceivedBy string                      `json:"paymentReceivedBy"`
	PerInvestor       map[uuid.UUID]ModeOfPayment `json:"perInvestor"`
}

// JobCosting itemizes post-purchase costs.
type JobCosting struct {
	Transfer   decimal.Decimal `json:"transfer"`
	Detailing  decimal.Decimal `json:"detailing"`
	Commission decimal.Decimal `json:"commission"`
	Recovery   decimal.Decimal `json:"recovery"`
	Inspection decimal.Decimal `json:"inspection"`
}

// Total adds the job costs to the purchase price.
func (j JobCosting) Total(purchasePrice decimal.Decimal) decimal.Decimal {
	return purchasePrice.
		Add(j.Transfer).
		Add(j.Detailing).
		Add(j.Commission).
		Add(j.Recovery).
		Add(j.Inspection)
}

// OperationalChecklist tracks the marketing preparation of a stocked vehicle.
type OperationalChecklist struct {
	Detailing        bool `json:"detailing"`
	Photoshoot       bool `json:"photoshoot"`
	PhotoshootEdited bool `json:"photoshootEdited"`
	MetaAds          bool `json:"metaAds"`
	OnlineAds        bool `json:"onlineAds"`
	Instagram        bool `json:"instagram"`
}

// FinancialChecklist counts the evidence documents collected for a purchase.
type FinancialChecklist struct {
	TotalItems     int `json:"totalItems"`
	CompletedItems int `json:"completedItems"`
}

// HasAttachment reports whether any attachment carries the category.
func (l Lead) HasAttachment(category AttachmentCategory) bool {
	for _, a := range l.Attachments {
		if a.Category == category {
			return true
		}
	}
	return false
}

// Clone returns a copy whose slices do not alias the receiver's.
func (l Lead) Clone() Lead {
	out := l
	out.Attachments = append([]Attachment(nil), l.Attachments...)
	out.InvestorAllocations = append([]InvestorAllocation(nil), l.InvestorAllocations...)
	out.Approval.Approvers = append([]uuid.UUID(nil), l.Approval.Approvers...)
	return out
}

// NewLead is the intake payload used by the create endpoint and CSV import.
type NewLead struct {
	Type     LeadType
	Status   Status
	Vehicle  VehicleInfo
	Contact  ContactInfo
	Source   string
	Priority Priority
}

// LeadPatch lists the fields a versioned update writes. Nil fields are kept.
type LeadPatch struct {
	Status              *Status
	Price               *PriceAnalysis
	Approval            *Approval
	InvestorAllocations *[]InvestorAllocation
	PaymentReceivedBy   *string
	JobCosting          *JobCosting
	Operational         *OperationalChecklist
	Financial           *FinancialChecklist
	Priority            *Priority
}

// IsEmpty reports whether the patch writes nothing.
func (p LeadPatch) IsEmpty() bool {
	return p.Status == nil &&
		p.Price == nil &&
		p.Approval == nil &&
		p.InvestorAllocations == nil &&
		p.PaymentReceivedBy == nil &&
		p.JobCosting == nil &&
		p.Operational == nil &&
		p.Financial == nil &&
		p.Priority == nil
}

// Apply returns a copy of lead with the patch written over it.
func (p LeadPatch) Apply(lead Lead) Lead {
	out := lead.Clone()
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Price != nil {
		out.Price = *p.Price
	}
	if p.Approval != nil {
		out.Approval = *p.Approval
	}
	if p.InvestorAllocations != nil {
		out.InvestorAllocations = append([]InvestorAllocation(nil), (*p.InvestorAllocations)...)
	}
	if p.PaymentReceivedBy != nil {
		out.PaymentReceivedBy = *p.PaymentReceivedBy
	}
	if p.JobCosting != nil {
		out.JobCosting = *p.JobCosting
	}
	if p.Operational != nil {
		out.Operational = *p.Operational
	}
	if p.Financial != nil {
		out.Financial = *p.Financial
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	return out
}
