package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"dealership_backend/internal/leads/domain"
	"dealership_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubPayments struct {
	err   error
	calls int
}

func (s *stubPayments) Validate(context.Context, domain.Lead, domain.PaymentContext) error {
	s.calls++
	return s.err
}

type stubQuorum struct {
	ok  bool
	err error
}

func (s stubQuorum) HasQuorum(context.Context, []uuid.UUID) (bool, error) {
	return s.ok, s.err
}

func inspectedLead(leadType domain.LeadType) domain.Lead {
	price := decimal.NewFromInt(52000)
	return domain.Lead{
		ID:          uuid.New(),
		Type:        leadType,
		Status:      domain.StatusInspection,
		Version:     1,
		Price:       domain.PriceAnalysis{MaxSellingPrice: &price},
		Attachments: []domain.Attachment{{Category: domain.CategoryInspectionReport}},
		Approval:    domain.Approval{Status: domain.ApprovalApproved},
	}
}

func TestTransitionRejectsEdgesOutsideTable(t *testing.T) {
	m := New(&stubPayments{})
	cases := []struct {
		from domain.Status
		to   domain.Status
	}{
		{domain.StatusNew, domain.StatusInventory},
		{domain.StatusSold, domain.StatusCancelled},
		{domain.StatusCancelled, domain.StatusNew},
		{domain.StatusInventory, domain.StatusConsignment},
		{domain.StatusSale, domain.StatusSale},
	}

	for _, tc := range cases {
		_, err := m.Transition(context.Background(), domain.Lead{Status: tc.from}, tc.to, TransitionContext{})
		if apperr.CodeOf(err) != domain.CodeInvalidTransition {
			t.Errorf("%s -> %s: expected invalid_transition, got %v", tc.from, tc.to, err)
		}
	}
}

func TestTransitionIntoStockRequiresFullInspection(t *testing.T) {
	m := New(&stubPayments{})
	partial := []domain.Lead{
		{Status: domain.StatusInspection, Type: domain.LeadTypeConsignment},
		func() domain.Lead {
			l := inspectedLead(domain.LeadTypeConsignment)
			l.Approval.Status = domain.ApprovalPending
			return l
		}(),
		func() domain.Lead {
			l := inspectedLead(domain.LeadTypeConsignment)
			l.Attachments = nil
			return l
		}(),
	}

	for i, lead := range partial {
		for _, target := range []domain.Status{domain.StatusInventory, domain.StatusConsignment} {
			_, err := m.Transition(context.Background(), lead, target, TransitionContext{})
			if apperr.CodeOf(err) != domain.CodeNotReady {
				t.Fatalf("lead %d -> %s: expected not_ready, got %v", i, target, err)
			}
		}
	}
}

func TestNotReadyCarriesBlockingStep(t *testing.T) {
	lead := inspectedLead(domain.LeadTypeConsignment)
	lead.Attachments = nil

	err := New(&stubPayments{}).CanTransition(lead, domain.StatusConsignment)

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %v", err)
	}
	details := appErr.Details.(domain.NotReadyDetails)
	if details.BlockingStep != "Inspection Report" || details.Percentage != 75 {
		t.Fatalf("unexpected details %+v", details)
	}
}

func TestPurchaseRunsPaymentGuard(t *testing.T) {
	payments := &stubPayments{err: domain.ErrNoInvestors()}
	m := New(payments)

	_, err := m.Transition(context.Background(), inspectedLead(domain.LeadTypePurchase), domain.StatusInventory, TransitionContext{})
	if apperr.CodeOf(err) != domain.CodeNoInvestors {
		t.Fatalf("expected no_investors, got %v", err)
	}
	if payments.calls != 1 {
		t.Fatalf("expected payment validator to run once, got %d", payments.calls)
	}
}

func TestConsignmentWithoutPaymentSkipsPaymentGuard(t *testing.T) {
	payments := &stubPayments{err: domain.ErrNoInvestors()}
	lead := inspectedLead(domain.LeadTypeConsignment)

	next, err := New(payments).Transition(context.Background(), lead, domain.StatusConsignment, TransitionContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Status != domain.StatusConsignment || lead.Status != domain.StatusInspection {
		t.Fatalf("expected copy in consignment and input untouched, got %s / %s", next.Status, lead.Status)
	}
	if payments.calls != 0 {
		t.Fatalf("payment validator should not run, ran %d times", payments.calls)
	}
}

func TestSaleRequiresInventoryReadiness(t *testing.T) {
	lead := domain.Lead{Type: domain.LeadTypeConsignment, Status: domain.StatusConsignment}

	_, err := New(&stubPayments{}).Transition(context.Background(), lead, domain.StatusSale, TransitionContext{})
	if apperr.CodeOf(err) != domain.CodeNotReady {
		t.Fatalf("expected not_ready, got %v", err)
	}
}

func TestCompleteApproval(t *testing.T) {
	m := New(&stubPayments{})
	pending := domain.Lead{Approval: domain.Approval{Status: domain.ApprovalPending, Approvers: []uuid.UUID{uuid.New()}}}

	if _, err := m.CompleteApproval(context.Background(), pending, stubQuorum{ok: false}); apperr.CodeOf(err) != domain.CodeApprovalPending {
		t.Fatalf("expected approval_pending, got %v", err)
	}

	approved, err := m.CompleteApproval(context.Background(), pending, stubQuorum{ok: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if approved.Approval.Status != domain.ApprovalApproved || approved.Approval.ApprovedAt == nil {
		t.Fatalf("expected approved record, got %+v", approved.Approval)
	}

	_, err = m.CompleteApproval(context.Background(), domain.Lead{Approval: domain.Approval{Status: domain.ApprovalNone}}, stubQuorum{ok: true})
	if apperr.CodeOf(err) != domain.CodeInvalidTransition {
		t.Fatalf("expected invalid_transition for lead without pending approval, got %v", err)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	details, ok := appErr.Details.(domain.ApprovalTransitionDetails)
	if !ok || details.From != domain.ApprovalNone || details.To != domain.ApprovalApproved {
		t.Fatalf("expected approval transition details, got %#v", appErr.Details)
	}
}

func TestSaleBlockedWhileFinancialItemOpenDespiteRounding(t *testing.T) {
	lead := domain.Lead{
		Type:   domain.LeadTypePurchase,
		Status: domain.StatusInventory,
		Operational: domain.OperationalChecklist{
			Detailing: true, Photoshoot: true, PhotoshootEdited: true,
			MetaAds: true, OnlineAds: true, Instagram: true,
		},
		Financial:   domain.FinancialChecklist{TotalItems: 300, CompletedItems: 299},
		Attachments: []domain.Attachment{{Category: domain.CategoryRegistrationCardNew}},
	}

	_, err := New(&stubPayments{}).Transition(context.Background(), lead, domain.StatusSale, TransitionContext{})
	if apperr.CodeOf(err) != domain.CodeNotReady {
		t.Fatalf("expected not_ready, got %v", err)
	}

	lead.Financial.CompletedItems = 300
	if _, err := New(&stubPayments{}).Transition(context.Background(), lead, domain.StatusSale, TransitionContext{}); err != nil {
		t.Fatalf("expected sale to be allowed, got %v", err)
	}
}

type memStore struct {
	mu        sync.Mutex
	lead      domain.Lead
	conflicts int
	updates   int
}

func (s *memStore) Get(context.Context, uuid.UUID) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lead.Clone(), nil
}

func (s *memStore) Update(_ context.Context, _ uuid.UUID, patch domain.LeadPatch, expected int64) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflicts > 0 {
		s.conflicts--
		s.lead.Version++
		return domain.Lead{}, domain.ErrVersionConflict
	}
	if expected != s.lead.Version {
		return domain.Lead{}, domain.ErrVersionConflict
	}
	s.updates++
	s.lead = patch.Apply(s.lead)
	s.lead.Version++
	return s.lead.Clone(), nil
}

func TestApplyRetriesOnVersionConflict(t *testing.T) {
	store := &memStore{lead: domain.Lead{Status: domain.StatusNew, Version: 1}, conflicts: 2}
	status := domain.StatusNegotiation

	_, after, err := Apply(context.Background(), store, uuid.New(), 3, func(domain.Lead) (domain.LeadPatch, error) {
		return domain.LeadPatch{Status: &status}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Status != domain.StatusNegotiation || store.updates != 1 {
		t.Fatalf("expected one committed update, got status %s after %d updates", after.Status, store.updates)
	}
}

func TestApplyGivesUpAfterMaxAttempts(t *testing.T) {
	store := &memStore{lead: domain.Lead{Status: domain.StatusNew, Version: 1}, conflicts: 5}
	status := domain.StatusNegotiation

	_, _, err := Apply(context.Background(), store, uuid.New(), 3, func(domain.Lead) (domain.LeadPatch, error) {
		return domain.LeadPatch{Status: &status}, nil
	})
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	if store.conflicts != 2 {
		t.Fatalf("expected 3 attempts, %d conflicts left", store.conflicts)
	}
}
