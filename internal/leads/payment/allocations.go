package payment

import (
	"fmt"
	"strings"

	"dealership_backend/internal/leads/domain"
	"dealership_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AllocationInput is one requested investor share.
type AllocationInput struct {
	InvestorID   uuid.UUID
	InvestorName string
	Percentage   decimal.Decimal
}

// BuildAllocations validates a requested split and derives the amounts from
// purchasePrice. Shares must be within [0,100], name distinct investors and
// add up to exactly 100.
func BuildAllocations(inputs []AllocationInput, purchasePrice decimal.Decimal) ([]domain.InvestorAllocation, error) {
	if len(inputs) == 0 {
		return nil, apperr.Validation("at least one investor allocation is required")
	}
	if purchasePrice.IsNegative() {
		return nil, apperr.Validation("purchase price cannot be negative")
	}

	seen := make(map[uuid.UUID]struct{}, len(inputs))
	sum := decimal.Zero
	out := make([]domain.InvestorAllocation, 0, len(inputs))

	for i, in := range inputs {
		if in.InvestorID == uuid.Nil {
			return nil, apperr.Validation(fmt.Sprintf("allocation %d: investorId is required", i))
		}
		if _, dup := seen[in.InvestorID]; dup {
			return nil, apperr.Validation(fmt.Sprintf("allocation %d: investor %s is listed twice", i, in.InvestorID))
		}
		seen[in.InvestorID] = struct{}{}

		if in.Percentage.IsNegative() || in.Percentage.GreaterThan(hundred) {
			return nil, apperr.Validation(fmt.Sprintf("allocation %d: percentage %s is outside [0,100]", i, in.Percentage))
		}
		sum = sum.Add(in.Percentage)

		out = append(out, domain.InvestorAllocation{
			InvestorID:   in.InvestorID,
			InvestorName: strings.TrimSpace(in.InvestorName),
			Percentage:   in.Percentage,
			Amount:       purchasePrice.Mul(in.Percentage).Div(hundred).Round(2),
		})
	}

	if !sum.Equal(hundred) {
		return nil, apperr.Validation(fmt.Sprintf("allocation percentages add up to %s, expected 100", sum)).
			WithDetails(map[string]string{"sum": sum.String()})
	}

	return out, nil
}
