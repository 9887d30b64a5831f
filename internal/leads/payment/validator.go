// Package payment validates how a purchase is funded across investors.
package payment

import (
	"context"
	"errors"
	"strings"

	"dealership_backend/internal/directory"
	"dealership_backend/internal/leads/domain"
	"dealership_backend/platform/apperr"

	"github.com/google/uuid"
)

// InvestorResolver looks investors up in the directory.
type InvestorResolver interface {
	ResolveInvestor(ctx context.Context, id uuid.UUID) (directory.Person, error)
}

// Validator checks that every investor share of a purchase has been paid.
type Validator struct {
	investors InvestorResolver
}

func NewValidator(investors InvestorResolver) *Validator {
	return &Validator{investors: investors}
}

// Validate returns nil when the purchase payment is complete. Percentages
// are not re-checked here; BuildAllocations enforces them on write.
func (v *Validator) Validate(ctx context.Context, lead domain.Lead, pc domain.PaymentContext) error {
	if len(lead.InvestorAllocations) == 0 {
		return domain.ErrNoInvestors()
	}

	for _, alloc := range lead.InvestorAllocations {
		if err := v.resolve(ctx, alloc); err != nil {
			return err
		}

		mode, ok := pc.PerInvestor[alloc.InvestorID]
		if !ok || strings.TrimSpace(string(mode)) == "" {
			return domain.ErrIncompletePayment(alloc.InvestorID, "mode of payment not selected")
		}
		if _, err := domain.ParseModeOfPayment(string(mode)); err != nil {
			return domain.ErrIncompletePayment(alloc.InvestorID, "unknown mode of payment")
		}
	}

	if strings.TrimSpace(pc.PaymentReceivedBy) == "" {
		return apperr.Validation("paymentReceivedBy is required").WithDetails(map[string]string{"field": "paymentReceivedBy"})
	}

	return nil
}

func (v *Validator) resolve(ctx context.Context, alloc domain.InvestorAllocation) error {
	if strings.TrimSpace(alloc.InvestorName) != "" {
		return nil
	}
	if alloc.InvestorID == uuid.Nil || v.investors == nil {
		return domain.ErrIncompletePayment(alloc.InvestorID, "investor cannot be resolved")
	}

	_, err := v.investors.ResolveInvestor(ctx, alloc.InvestorID)
	if errors.Is(err, directory.ErrNotFound) {
		return domain.ErrIncompletePayment(alloc.InvestorID, "investor cannot be resolved")
	}
	return err
}

// RecordModes copies the selected payment modes onto the allocations.
// The caller must have validated pc first.
func RecordModes(allocs []domain.InvestorAllocation, pc domain.PaymentContext) []domain.InvestorAllocation {
	out := make([]domain.InvestorAllocation, len(allocs))
	for i, alloc := range allocs {
		mode, _ := domain.ParseModeOfPayment(string(pc.PerInvestor[alloc.InvestorID]))
		alloc.ModeOfPayment = mode
		out[i] = alloc
	}
	return out
}
