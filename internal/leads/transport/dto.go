// Package transport holds the request shapes of the lead endpoints.
package transport

import (
	"strings"

	"dealership_backend/internal/leads/domain"
	"dealership_backend/internal/leads/payment"
	"dealership_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterValidations adds the lead enum tags to val.
func RegisterValidations(val *validator.Validator) error {
	if err := val.RegisterValidation("leadstatus", enumRule(func(s string) error {
		_, err := domain.ParseStatus(s)
		return err
	})); err != nil {
		return err
	}
	if err := val.RegisterValidation("leadtype", enumRule(func(s string) error {
		_, err := domain.ParseLeadType(s)
		return err
	})); err != nil {
		return err
	}
	if err := val.RegisterValidation("leadpriority", enumRule(func(s string) error {
		_, err := domain.ParsePriority(s)
		return err
	})); err != nil {
		return err
	}
	return val.RegisterValidation("paymentmode", enumRule(func(s string) error {
		_, err := domain.ParseModeOfPayment(s)
		return err
	}))
}

// enumRule accepts blank values so optional fields stay optional; pair the
// tag with required when a value must be present.
func enumRule(parse func(string) error) playground.Func {
	return func(fl playground.FieldLevel) bool {
		raw := fl.Field().String()
		if strings.TrimSpace(raw) == "" {
			return true
		}
		return parse(raw) == nil
	}
}

type CreateLeadRequest struct {
	Type        string          `json:"type" validate:"omitempty,leadtype"`
	Status      string          `json:"status" validate:"omitempty,leadstatus"`
	FullName    string          `json:"fullName" validate:"required,notblank,max=200"`
	Phone       string          `json:"phone" validate:"omitempty,max=40"`
	Email       string          `json:"email" validate:"omitempty,email,max=254"`
	Make        string          `json:"make" validate:"required,notblank,max=80"`
	Model       string          `json:"model" validate:"required,notblank,max=80"`
	Year        int             `json:"year" validate:"omitempty,min=1900,max=2100"`
	Mileage     int             `json:"mileage" validate:"min=0"`
	Color       string          `json:"color" validate:"max=40"`
	Trim        string          `json:"trim" validate:"max=80"`
	Region      string          `json:"region" validate:"max=40"`
	AskingPrice decimal.Decimal `json:"askingPrice"`
	VIN         string          `json:"vin" validate:"omitempty,max=17"`
	Source      string          `json:"source" validate:"max=80"`
	Priority    string          `json:"priority" validate:"omitempty,leadpriority"`
}

// NewLead converts the request into the intake payload.
func (r CreateLeadRequest) NewLead() domain.NewLead {
	return domain.NewLead{
		Type:   domain.LeadType(strings.ToLower(strings.TrimSpace(r.Type))),
		Status: domain.Status(strings.ToLower(strings.TrimSpace(r.Status))),
		Vehicle: domain.VehicleInfo{
			Make:        r.Make,
			Model:       r.Model,
			Year:        r.Year,
			Mileage:     r.Mileage,
			Color:       r.Color,
			Trim:        r.Trim,
			Region:      r.Region,
			AskingPrice: r.AskingPrice,
			VIN:         r.VIN,
		},
		Contact: domain.ContactInfo{
			FullName: r.FullName,
			Phone:    r.Phone,
			Email:    r.Email,
		},
		Source:   r.Source,
		Priority: domain.Priority(strings.ToLower(strings.TrimSpace(r.Priority))),
	}
}

// PaymentRequest carries the payment selected for a purchase. ModeOfPayment
// is applied to every investor missing from PerInvestor.
type PaymentRequest struct {
	ModeOfPayment     string               `json:"modeOfPayment" validate:"omitempty,paymentmode"`
	PaymentReceivedBy string               `json:"paymentReceivedBy" validate:"max=120"`
	PerInvestor       map[uuid.UUID]string `json:"perInvestor" validate:"omitempty,dive,paymentmode"`
}

// Details converts the request into payment details. Modes were checked by
// the paymentmode tag, so parse failures cannot occur here.
func (r PaymentRequest) Details() payment.Details {
	d := payment.Details{PaymentReceivedBy: r.PaymentReceivedBy}
	if mode, err := domain.ParseModeOfPayment(r.ModeOfPayment); err == nil {
		d.ModeOfPayment = mode
	}
	if len(r.PerInvestor) > 0 {
		d.PerInvestor = make(map[uuid.UUID]domain.ModeOfPayment, len(r.PerInvestor))
		for id, raw := range r.PerInvestor {
			if mode, err := domain.ParseModeOfPayment(raw); err == nil {
				d.PerInvestor[id] = mode
			}
		}
	}
	return d
}

type TransitionRequest struct {
	Status  string          `json:"status" validate:"required,leadstatus"`
	Payment *PaymentRequest `json:"payment"`
}

type AllocationItem struct {
	InvestorID   uuid.UUID       `json:"investorId" validate:"required"`
	InvestorName string          `json:"investorName" validate:"max=200"`
	Percentage   decimal.Decimal `json:"percentage"`
}

type AllocationsRequest struct {
	Allocations []AllocationItem `json:"allocations" validate:"required,min=1,max=20,dive"`
}

// Inputs converts the request into allocation inputs.
func (r AllocationsRequest) Inputs() []payment.AllocationInput {
	out := make([]payment.AllocationInput, len(r.Allocations))
	for i, a := range r.Allocations {
		out[i] = payment.AllocationInput{
			InvestorID:   a.InvestorID,
			InvestorName: strings.TrimSpace(a.InvestorName),
			Percentage:   a.Percentage,
		}
	}
	return out
}

type PriceRequest struct {
	MinSellingPrice     *decimal.Decimal `json:"minSellingPrice"`
	MaxSellingPrice     *decimal.Decimal `json:"maxSellingPrice"`
	PurchasedFinalPrice *decimal.Decimal `json:"purchasedFinalPrice"`
}

type ChecklistsRequest struct {
	Operational *domain.OperationalChecklist `json:"operational"`
	Financial   *domain.FinancialChecklist   `json:"financial"`
}

type JobCostingRequest struct {
	Transfer   decimal.Decimal `json:"transfer"`
	Detailing  decimal.Decimal `json:"detailing"`
	Commission decimal.Decimal `json:"commission"`
	Recovery   decimal.Decimal `json:"recovery"`
	Inspection decimal.Decimal `json:"inspection"`
}

// BulkRequest is the body of POST /leads/bulk. Payments is keyed by lead id.
type BulkRequest struct {
	Action   string                       `json:"action" validate:"required,oneof=status purchase priority"`
	LeadIDs  []uuid.UUID                  `json:"leadIds" validate:"required,min=1"`
	Status   string                       `json:"status" validate:"omitempty,leadstatus"`
	Priority string                       `json:"priority" validate:"omitempty,leadpriority"`
	Payments map[uuid.UUID]PaymentRequest `json:"payments" validate:"omitempty,dive"`
}

// ListQuery binds the list filters from the query string.
type ListQuery struct {
	Status   string `form:"status" validate:"omitempty,leadstatus"`
	Type     string `form:"type" validate:"omitempty,leadtype"`
	Priority string `form:"priority" validate:"omitempty,leadpriority"`
	Search   string `form:"search" validate:"max=100"`
	Page     int    `form:"page" validate:"min=0"`
	PageSize int    `form:"pageSize" validate:"min=0,max=200"`
}
