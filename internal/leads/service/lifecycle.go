package service

import (
	"context"
	"errors"

	"dealership_backend/internal/directory"
	"dealership_backend/internal/events"
	"dealership_backend/internal/leads/bulk"
	"dealership_backend/internal/leads/domain"
	"dealership_backend/internal/leads/payment"
	"dealership_backend/internal/leads/pipeline"
	"dealership_backend/internal/leads/readiness"
	"dealership_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScoreReadiness scores the checklist that gates the lead's next move.
func (s *Service) ScoreReadiness(ctx context.Context, id uuid.UUID) (readiness.Result, error) {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return readiness.Result{}, err
	}
	return readiness.Score(lead), nil
}

// CanTransition runs the edge and readiness guards for target without
// writing. A nil error means the move is allowed.
func (s *Service) CanTransition(ctx context.Context, id uuid.UUID, target domain.Status) error {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.machine.CanTransition(lead, target)
}

// Transition moves the lead to target. When pd is set, or the move commits
// a purchase, the payment is validated against the allocations of the fresh
// read and the selected modes are recorded.
func (s *Service) Transition(ctx context.Context, actorID, id uuid.UUID, target domain.Status, pd *payment.Details) (domain.Lead, error) {
	purchase := false
	before, after, err := s.mutate(ctx, id, func(lead domain.Lead) (domain.LeadPatch, error) {
		var tc pipeline.TransitionContext
		if pd != nil {
			pc := pd.ContextFor(lead)
			tc.Payment = &pc
		}

		purchase = pipeline.IsPurchase(lead, target, tc)
		if purchase {
			var pc domain.PaymentContext
			if tc.Payment != nil {
				pc = *tc.Payment
			}
			return bulk.PurchasePatch(ctx, s.machine, lead, target, pc)
		}

		next, err := s.machine.Transition(ctx, lead, target, tc)
		if err != nil {
			return domain.LeadPatch{}, err
		}
		return domain.LeadPatch{Status: &next.Status}, nil
	})
	if err != nil {
		s.logRejected(ctx, id, before.Status, target, err)
		return domain.Lead{}, err
	}

	s.publishStatusChanged(ctx, actorID, before, after, purchase)
	return after, nil
}

// Purchase commits the purchase of the lead into stock: inventory for
// purchases, consignment for consignments.
func (s *Service) Purchase(ctx context.Context, actorID, id uuid.UUID, pd payment.Details) (domain.Lead, error) {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}
	return s.Transition(ctx, actorID, id, lead.Type.PurchaseTarget(), &pd)
}

// ValidateInvestorPayment checks pd against the lead's allocations without
// writing anything.
func (s *Service) ValidateInvestorPayment(ctx context.Context, id uuid.UUID, pd payment.Details) error {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.payments.Validate(ctx, lead, pd.ContextFor(lead))
}

// SetAllocations replaces the investor split of a lead. Allocations are
// frozen once the vehicle has been purchased.
func (s *Service) SetAllocations(ctx context.Context, id uuid.UUID, inputs []payment.AllocationInput) (domain.Lead, error) {
	resolved := make([]payment.AllocationInput, len(inputs))
	for i, in := range inputs {
		if in.InvestorName == "" && in.InvestorID != uuid.Nil && s.investors != nil {
			person, err := s.investors.ResolveInvestor(ctx, in.InvestorID)
			if errors.Is(err, directory.ErrNotFound) {
				return domain.Lead{}, apperr.Validation("unknown investor").
					WithDetails(map[string]string{"investorId": in.InvestorID.String()})
			}
			if err != nil {
				return domain.Lead{}, err
			}
			in.InvestorName = person.Name
		}
		resolved[i] = in
	}

	_, after, err := s.mutate(ctx, id, func(lead domain.Lead) (domain.LeadPatch, error) {
		if lead.Status.IsPurchased() || lead.Status.IsTerminal() {
			return domain.LeadPatch{}, domain.ErrAllocationsLocked(lead.Status)
		}
		allocs, err := payment.BuildAllocations(resolved, allocationBasis(lead))
		if err != nil {
			return domain.LeadPatch{}, err
		}
		return domain.LeadPatch{InvestorAllocations: &allocs}, nil
	})
	return after, err
}

// allocationBasis is the price investor amounts are derived from.
func allocationBasis(lead domain.Lead) decimal.Decimal {
	if lead.Price.PurchasedFinalPrice != nil {
		return *lead.Price.PurchasedFinalPrice
	}
	return lead.Vehicle.AskingPrice
}

// UpdatePrice replaces the price analysis. Open allocations are re-priced
// when the final price changes.
func (s *Service) UpdatePrice(ctx context.Context, id uuid.UUID, price domain.PriceAnalysis) (domain.Lead, error) {
	for _, p := range []*decimal.Decimal{price.MinSellingPrice, price.MaxSellingPrice, price.PurchasedFinalPrice} {
		if p != nil && p.IsNegative() {
			return domain.Lead{}, apperr.Validation("prices cannot be negative")
		}
	}
	if price.MinSellingPrice != nil && price.MaxSellingPrice != nil && price.MinSellingPrice.GreaterThan(*price.MaxSellingPrice) {
		return domain.Lead{}, apperr.Validation("minSellingPrice cannot exceed maxSellingPrice")
	}

	_, after, err := s.mutate(ctx, id, func(lead domain.Lead) (domain.LeadPatch, error) {
		if lead.Status.IsTerminal() {
			return domain.LeadPatch{}, apperr.Precondition(domain.CodeInvalidTransition, "lead is closed")
		}
		patch := domain.LeadPatch{Price: &price}
		if len(lead.InvestorAllocations) > 0 && !lead.Status.IsPurchased() {
			next := lead.Clone()
			next.Price = price
			allocs, err := payment.BuildAllocations(allocationInputs(lead.InvestorAllocations), allocationBasis(next))
			if err != nil {
				return domain.LeadPatch{}, err
			}
			patch.InvestorAllocations = &allocs
		}
		return patch, nil
	})
	return after, err
}

func allocationInputs(allocs []domain.InvestorAllocation) []payment.AllocationInput {
	out := make([]payment.AllocationInput, len(allocs))
	for i, a := range allocs {
		out[i] = payment.AllocationInput{InvestorID: a.InvestorID, InvestorName: a.InvestorName, Percentage: a.Percentage}
	}
	return out
}

// UpdateChecklists writes the operational and financial checklists. A nil
// checklist is left unchanged.
func (s *Service) UpdateChecklists(ctx context.Context, id uuid.UUID, ops *domain.OperationalChecklist, fin *domain.FinancialChecklist) (domain.Lead, error) {
	if fin != nil && (fin.TotalItems < 0 || fin.CompletedItems < 0 || fin.CompletedItems > fin.TotalItems) {
		return domain.Lead{}, apperr.Validation("completedItems must be between 0 and totalItems")
	}
	patch := domain.LeadPatch{Operational: ops, Financial: fin}
	if patch.IsEmpty() {
		return domain.Lead{}, apperr.Validation("nothing to update")
	}

	_, after, err := s.mutate(ctx, id, func(lead domain.Lead) (domain.LeadPatch, error) {
		if lead.Status.IsTerminal() {
			return domain.LeadPatch{}, apperr.Precondition(domain.CodeInvalidTransition, "lead is closed")
		}
		return patch, nil
	})
	return after, err
}

// UpdateJobCosting replaces the itemized post-purchase costs.
func (s *Service) UpdateJobCosting(ctx context.Context, id uuid.UUID, costs domain.JobCosting) (domain.Lead, error) {
	for _, c := range []decimal.Decimal{costs.Transfer, costs.Detailing, costs.Commission, costs.Recovery, costs.Inspection} {
		if c.IsNegative() {
			return domain.Lead{}, apperr.Validation("job costs cannot be negative")
		}
	}
	_, after, err := s.mutate(ctx, id, func(domain.Lead) (domain.LeadPatch, error) {
		return domain.LeadPatch{JobCosting: &costs}, nil
	})
	return after, err
}

func (s *Service) logRejected(ctx context.Context, id uuid.UUID, from, to domain.Status, err error) {
	code := apperr.CodeOf(err)
	if code == "" {
		return
	}
	s.log.WithContext(ctx).TransitionRejected(id.String(), string(from), string(to), code)
}

func (s *Service) publishStatusChanged(ctx context.Context, actorID uuid.UUID, before, after domain.Lead, purchase bool) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    after.ID,
		From:      string(before.Status),
		To:        string(after.Status),
		Purchase:  purchase,
		ActorID:   actorRef(actorID),
	})
}
