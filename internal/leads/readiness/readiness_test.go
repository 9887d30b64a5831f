package readiness

import (
	"testing"

	"dealership_backend/internal/leads/domain"

	"github.com/shopspring/decimal"
)

func priced() domain.PriceAnalysis {
	low := decimal.NewFromInt(30000)
	return domain.PriceAnalysis{MinSellingPrice: &low}
}

func allOperational() domain.OperationalChecklist {
	return domain.OperationalChecklist{
		Detailing:        true,
		Photoshoot:       true,
		PhotoshootEdited: true,
		MetaAds:          true,
		OnlineAds:        true,
		Instagram:        true,
	}
}

func withAttachment(category domain.AttachmentCategory) []domain.Attachment {
	return []domain.Attachment{{Category: category, FileName: "doc.pdf"}}
}

func TestInspectionWithOnlyPriceAnalysis(t *testing.T) {
	got := Inspection(domain.Lead{Price: priced()})

	if got.Percentage != 25 {
		t.Fatalf("expected 25%%, got %d", got.Percentage)
	}
	if got.BlockingStep != StepInspectionReport {
		t.Fatalf("expected blocking step %q, got %q", StepInspectionReport, got.BlockingStep)
	}
	if got.CompletedSteps != 1 || got.TotalSteps != 4 {
		t.Fatalf("expected 1/4 steps, got %d/%d", got.CompletedSteps, got.TotalSteps)
	}
}

func TestInspectionReportsEarliestUnmetStep(t *testing.T) {
	// Approved without a price analysis: three steps done, the first one still blocks.
	lead := domain.Lead{
		Attachments: withAttachment(domain.CategoryInspectionReport),
		Approval:    domain.Approval{Status: domain.ApprovalApproved},
	}

	got := Inspection(lead)
	if got.Percentage != 75 {
		t.Fatalf("expected 75%%, got %d", got.Percentage)
	}
	if got.BlockingStep != StepPriceAnalysis {
		t.Fatalf("expected blocking step %q, got %q", StepPriceAnalysis, got.BlockingStep)
	}
}

func TestInspectionComplete(t *testing.T) {
	lead := domain.Lead{
		Price:       priced(),
		Attachments: withAttachment(domain.CategoryInspectionReport),
		Approval:    domain.Approval{Status: domain.ApprovalApproved},
	}

	got := Inspection(lead)
	if got.Percentage != 100 || got.BlockingStep != StepComplete || !got.IsComplete() {
		t.Fatalf("expected complete result, got %+v", got)
	}
}

func TestInspectionPendingApprovalCountsAsSubmitted(t *testing.T) {
	lead := domain.Lead{
		Price:       priced(),
		Attachments: withAttachment(domain.CategoryInspectionReport),
		Approval:    domain.Approval{Status: domain.ApprovalPending},
	}

	got := Inspection(lead)
	if got.Percentage != 75 || got.BlockingStep != StepDualApproval {
		t.Fatalf("expected 75%% blocked at dual approval, got %+v", got)
	}
}

func TestInventoryConsignmentExcludesFinancialBucket(t *testing.T) {
	lead := domain.Lead{
		Type:        domain.LeadTypeConsignment,
		Status:      domain.StatusConsignment,
		Operational: allOperational(),
		Financial:   domain.FinancialChecklist{TotalItems: 4, CompletedItems: 0},
		Attachments: withAttachment(domain.CategoryRegistrationCardNew),
	}

	got := Inventory(lead)
	if got.Percentage != 100 {
		t.Fatalf("expected 100%%, got %d (%+v)", got.Percentage, got)
	}
	if got.TotalSteps != 7 {
		t.Fatalf("expected 7 items, got %d", got.TotalSteps)
	}
}

func TestInventoryPurchaseCountsFinancialEvidence(t *testing.T) {
	lead := domain.Lead{
		Type:        domain.LeadTypePurchase,
		Status:      domain.StatusInventory,
		Operational: allOperational(),
		Financial:   domain.FinancialChecklist{TotalItems: 3, CompletedItems: 1},
		Attachments: withAttachment(domain.CategoryRegistrationCardNew),
	}

	got := Inventory(lead)
	// 6 + 1 + 1 of 6 + 3 + 1
	if got.CompletedSteps != 8 || got.TotalSteps != 10 {
		t.Fatalf("expected 8/10, got %d/%d", got.CompletedSteps, got.TotalSteps)
	}
	if got.Percentage != 80 {
		t.Fatalf("expected 80%%, got %d", got.Percentage)
	}
	if got.BlockingStep != ItemFinancialEvidence {
		t.Fatalf("expected blocking step %q, got %q", ItemFinancialEvidence, got.BlockingStep)
	}
}

func TestInventoryCustomerRegistrationCardDoesNotCount(t *testing.T) {
	lead := domain.Lead{
		Type:        domain.LeadTypeConsignment,
		Operational: allOperational(),
		Attachments: withAttachment(domain.CategoryRegistrationCardCustomer),
	}

	got := Inventory(lead)
	if got.Percentage != 86 {
		t.Fatalf("expected 86%%, got %d", got.Percentage)
	}
	if got.BlockingStep != ItemRegistrationCard {
		t.Fatalf("expected blocking step %q, got %q", ItemRegistrationCard, got.BlockingStep)
	}
}

func TestInventoryClampsFinancialCounts(t *testing.T) {
	lead := domain.Lead{
		Type:      domain.LeadTypePurchase,
		Financial: domain.FinancialChecklist{TotalItems: 2, CompletedItems: 9},
	}

	got := Inventory(lead)
	if got.CompletedSteps != 2 || got.TotalSteps != 9 {
		t.Fatalf("expected 2/9 after clamping, got %d/%d", got.CompletedSteps, got.TotalSteps)
	}
	if got.BlockingStep != ItemDetailing {
		t.Fatalf("expected blocking step %q, got %q", ItemDetailing, got.BlockingStep)
	}
}

func TestPercentageRoundsToNearest(t *testing.T) {
	if got := percentage(299, 300); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if got := percentage(1, 3); got != 33 {
		t.Fatalf("expected 33, got %d", got)
	}
	if got := percentage(2, 3); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
}

func TestScoreIsIdempotentAndPicksModeByStatus(t *testing.T) {
	leads := []domain.Lead{
		{Status: domain.StatusNew},
		{Status: domain.StatusInspection, Price: priced()},
		{Status: domain.StatusInventory, Type: domain.LeadTypePurchase, Operational: allOperational()},
		{Status: domain.StatusSold, Type: domain.LeadTypeConsignment},
	}
	wantModes := []Mode{ModeInspection, ModeInspection, ModeInventory, ModeInventory}

	for i, lead := range leads {
		first := Score(lead)
		second := Score(lead)
		if first != second {
			t.Fatalf("lead %d: score not idempotent: %+v vs %+v", i, first, second)
		}
		if first.Mode != wantModes[i] {
			t.Fatalf("lead %d: expected mode %s, got %s", i, wantModes[i], first.Mode)
		}
	}
}
