package domain

import (
	"testing"

	"dealership_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestIsValidTransitionFollowsAdjacencyTable(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusNew, StatusNegotiation, true},
		{StatusNew, StatusCancelled, true},
		{StatusNew, StatusInspection, false},
		{StatusNegotiation, StatusInspection, true},
		{StatusInspection, StatusInventory, true},
		{StatusInspection, StatusConsignment, true},
		{StatusInspection, StatusCancelled, true},
		{StatusInventory, StatusSale, true},
		{StatusConsignment, StatusSale, true},
		{StatusInventory, StatusCancelled, false},
		{StatusSale, StatusSold, true},
		{StatusSold, StatusSale, false},
		{StatusCancelled, StatusNew, false},
	}

	for _, tc := range cases {
		if got := IsValidTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("IsValidTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminalStatusesHaveNoSuccessors(t *testing.T) {
	for s := range knownStatuses {
		if s.IsTerminal() && len(NextStatuses(s)) != 0 {
			t.Errorf("terminal status %s has successors %v", s, NextStatuses(s))
		}
		if !s.IsTerminal() && len(NextStatuses(s)) == 0 {
			t.Errorf("non-terminal status %s has no successors", s)
		}
	}
}

func TestParseStatusRejectsUnknownValues(t *testing.T) {
	got, err := ParseStatus("  Inspection ")
	if err != nil || got != StatusInspection {
		t.Fatalf("expected inspection, got %q (%v)", got, err)
	}

	_, err = ParseStatus("approved")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseModeOfPaymentAcceptsAliases(t *testing.T) {
	cases := map[string]ModeOfPayment{
		"Cash":          PaymentCash,
		"bank transfer": PaymentBankTransfer,
		"check":         PaymentCheque,
		"credit-card":   PaymentCard,
	}
	for raw, want := range cases {
		got, err := ParseModeOfPayment(raw)
		if err != nil || got != want {
			t.Errorf("ParseModeOfPayment(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := ParseModeOfPayment(""); err == nil {
		t.Fatal("expected blank mode of payment to be rejected")
	}
}

func TestJobCostingTotalAddsEveryItem(t *testing.T) {
	costing := JobCosting{
		Transfer:   decimal.RequireFromString("350"),
		Detailing:  decimal.RequireFromString("120.50"),
		Commission: decimal.RequireFromString("1000"),
		Recovery:   decimal.RequireFromString("200"),
		Inspection: decimal.RequireFromString("99.50"),
	}

	got := costing.Total(decimal.RequireFromString("42000"))
	if !got.Equal(decimal.RequireFromString("43770")) {
		t.Fatalf("expected total 43770, got %s", got)
	}
}

func TestLeadPatchApplyDoesNotAliasInput(t *testing.T) {
	investor := uuid.New()
	lead := Lead{
		Status: StatusInspection,
		InvestorAllocations: []InvestorAllocation{
			{InvestorID: investor, Percentage: decimal.NewFromInt(100)},
		},
	}

	status := StatusInventory
	updated := LeadPatch{Status: &status}.Apply(lead)
	updated.InvestorAllocations[0].ModeOfPayment = PaymentCash

	if lead.Status != StatusInspection {
		t.Fatalf("input status changed to %s", lead.Status)
	}
	if lead.InvestorAllocations[0].ModeOfPayment != "" {
		t.Fatal("input allocations were mutated through the copy")
	}
	if updated.Status != StatusInventory {
		t.Fatalf("expected inventory, got %s", updated.Status)
	}
}
