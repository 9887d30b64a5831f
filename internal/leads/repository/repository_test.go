package repository

import (
	"strings"
	"testing"

	"dealership_backend/internal/leads/domain"

	"github.com/shopspring/decimal"
)

func TestBuildListWhere(t *testing.T) {
	status := domain.StatusInspection
	priority := domain.PriorityUrgent

	where, args, next := buildListWhere(ListParams{Status: &status, Priority: &priority, Search: "  patrol "})

	want := "TRUE AND l.status = $1 AND l.priority = $2 AND (l.contact_full_name ILIKE $3"
	if !strings.HasPrefix(where, want) {
		t.Fatalf("unexpected where clause %q", where)
	}
	if len(args) != 3 || args[0] != "inspection" || args[1] != "urgent" || args[2] != "%patrol%" {
		t.Fatalf("unexpected args %v", args)
	}
	if next != 4 {
		t.Fatalf("expected next placeholder 4, got %d", next)
	}

	where, args, next = buildListWhere(ListParams{})
	if where != "TRUE" || len(args) != 0 || next != 1 {
		t.Fatalf("empty filter should not constrain, got %q %v %d", where, args, next)
	}
}

func TestBuildPatchSet(t *testing.T) {
	status := domain.StatusInventory
	receivedBy := "Accounts"
	final := decimal.RequireFromString("46000.50")
	allocs := []domain.InvestorAllocation(nil)

	clauses, args, err := buildPatchSet(domain.LeadPatch{
		Status:              &status,
		PaymentReceivedBy:   &receivedBy,
		Price:               &domain.PriceAnalysis{PurchasedFinalPrice: &final},
		InvestorAllocations: &allocs,
	}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantClauses := []string{
		"status = $3",
		"payment_received_by = $4",
		"min_selling_price = $5::numeric",
		"max_selling_price = $6::numeric",
		"purchased_final_price = $7::numeric",
		"investor_allocations = $8",
	}
	if strings.Join(clauses, "; ") != strings.Join(wantClauses, "; ") {
		t.Fatalf("unexpected clauses %v", clauses)
	}
	if args[2] != nil || args[3] != nil {
		t.Fatalf("cleared prices must be written as NULL, got %v %v", args[2], args[3])
	}
	if args[4] != "46000.5" {
		t.Fatalf("unexpected final price arg %v", args[4])
	}
	if raw, ok := args[5].([]byte); !ok || string(raw) != "[]" {
		t.Fatalf("nil allocations must be stored as an empty array, got %v", args[5])
	}
}

func TestBuildPatchSetEmpty(t *testing.T) {
	clauses, args, err := buildPatchSet(domain.LeadPatch{}, 1)
	if err != nil || len(clauses) != 0 || len(args) != 0 {
		t.Fatalf("expected nothing to set, got %v %v %v", clauses, args, err)
	}
}
