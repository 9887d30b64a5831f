package payment

import (
	"strings"

	"dealership_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Details is the payment data a caller supplies for one purchase.
// ModeOfPayment applies to every investor without a PerInvestor entry.
type Details struct {
	ModeOfPayment     domain.ModeOfPayment               `json:"modeOfPayment,omitempty"`
	PaymentReceivedBy string                             `json:"paymentReceivedBy"`
	PerInvestor       map[uuid.UUID]domain.ModeOfPayment `json:"perInvestor,omitempty"`
}

// IsSupplied reports whether a receiver and at least one mode were given.
func (d Details) IsSupplied() bool {
	if strings.TrimSpace(d.PaymentReceivedBy) == "" {
		return false
	}
	return strings.TrimSpace(string(d.ModeOfPayment)) != "" || len(d.PerInvestor) > 0
}

// ContextFor expands the details into a per-investor context for lead.
func (d Details) ContextFor(lead domain.Lead) domain.PaymentContext {
	perInvestor := make(map[uuid.UUID]domain.ModeOfPayment, len(lead.InvestorAllocations))
	for _, alloc := range lead.InvestorAllocations {
		if mode, ok := d.PerInvestor[alloc.InvestorID]; ok {
			perInvestor[alloc.InvestorID] = mode
		} else if d.ModeOfPayment != "" {
			perInvestor[alloc.InvestorID] = d.ModeOfPayment
		}
	}
	return domain.PaymentContext{
		PaymentReceivedBy: strings.TrimSpace(d.PaymentReceivedBy),
		PerInvestor:       perInvestor,
	}
}
