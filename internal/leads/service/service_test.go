package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"dealership_backend/internal/directory"
	"dealership_backend/internal/events"
	"dealership_backend/internal/leads/bulk"
	"dealership_backend/internal/leads/domain"
	"dealership_backend/internal/leads/payment"
	"dealership_backend/internal/leads/pipeline"
	"dealership_backend/internal/leads/repository"
	"dealership_backend/platform/apperr"
	"dealership_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memRepo struct {
	mu         sync.Mutex
	leads      map[uuid.UUID]domain.Lead
	activities []repository.ActivityParams
}

func newMemRepo(leads ...domain.Lead) *memRepo {
	r := &memRepo{leads: make(map[uuid.UUID]domain.Lead)}
	for _, l := range leads {
		r.leads[l.ID] = l
	}
	return r
}

func (r *memRepo) Get(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[id]
	if !ok {
		return domain.Lead{}, domain.ErrNotFound
	}
	return lead.Clone(), nil
}

func (r *memRepo) Update(_ context.Context, id uuid.UUID, patch domain.LeadPatch, expected int64) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[id]
	if !ok {
		return domain.Lead{}, domain.ErrNotFound
	}
	if lead.Version != expected {
		return domain.Lead{}, domain.ErrVersionConflict
	}
	next := patch.Apply(lead)
	next.Version++
	r.leads[id] = next
	return next.Clone(), nil
}

func (r *memRepo) BulkUpdate(_ context.Context, ids []uuid.UUID, patch domain.LeadPatch) ([]uuid.UUID, error) {
	return nil, errors.New("not used")
}

func (r *memRepo) Create(_ context.Context, in domain.NewLead) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead := domain.Lead{
		ID:       uuid.New(),
		Type:     in.Type,
		Status:   in.Status,
		Version:  1,
		Vehicle:  in.Vehicle,
		Contact:  in.Contact,
		Source:   in.Source,
		Priority: in.Priority,
		Approval: domain.Approval{Status: domain.ApprovalNone},
	}
	r.leads[lead.ID] = lead
	return lead, nil
}

func (r *memRepo) List(context.Context, repository.ListParams) ([]domain.Lead, int, error) {
	return nil, 0, errors.New("not used")
}

func (r *memRepo) AddAttachment(_ context.Context, params repository.CreateAttachmentParams) (domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[params.LeadID]
	if !ok {
		return domain.Attachment{}, domain.ErrNotFound
	}
	att := domain.Attachment{ID: uuid.New(), Category: params.Category, FileKey: params.FileKey, FileName: params.FileName}
	lead.Attachments = append(lead.Attachments, att)
	lead.Version++
	r.leads[lead.ID] = lead
	return att, nil
}

func (r *memRepo) AddActivity(_ context.Context, params repository.ActivityParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities = append(r.activities, params)
	return nil
}

func (r *memRepo) ListActivity(context.Context, uuid.UUID, int) ([]repository.Activity, error) {
	return nil, nil
}

// groupQuorum counts approvers that belong to distinct two-person groups.
type groupQuorum struct {
	groups    [][]uuid.UUID
	minGroups int
}

func (q groupQuorum) HasQuorum(_ context.Context, approvers []uuid.UUID) (bool, error) {
	hit := 0
	for _, g := range q.groups {
		for _, m := range g {
			if containsID(approvers, m) {
				hit++
				break
			}
		}
	}
	return hit >= q.minGroups, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

type memInvestors map[uuid.UUID]string

func (m memInvestors) ResolveInvestor(_ context.Context, id uuid.UUID) (directory.Person, error) {
	name, ok := m[id]
	if !ok {
		return directory.Person{}, directory.ErrNotFound
	}
	return directory.Person{ID: id, Name: name}, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newTestService(repo *memRepo, quorum pipeline.QuorumChecker, investors InvestorDirectory, bus events.Bus) *Service {
	validator := payment.NewValidator(investors)
	machine := pipeline.New(validator)
	executor := bulk.NewExecutor(repo, machine, nil, bus, logger.Discard(), bulk.Options{})
	return New(Deps{
		Repo:        repo,
		Machine:     machine,
		Payments:    validator,
		Quorum:      quorum,
		Investors:   investors,
		Executor:    executor,
		EventBus:    bus,
		PhoneRegion: "AE",
	}, logger.Discard())
}

func money(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func inspectionLead() domain.Lead {
	return domain.Lead{
		ID:       uuid.New(),
		Type:     domain.LeadTypePurchase,
		Status:   domain.StatusInspection,
		Version:  1,
		Approval: domain.Approval{Status: domain.ApprovalNone},
	}
}

func TestCreateAcceptsOnlyIntakeStatuses(t *testing.T) {
	svc := newTestService(newMemRepo(), nil, nil, nil)
	base := domain.NewLead{
		Contact: domain.ContactInfo{FullName: "  Layla  Nasser ", Phone: "050 123 4567"},
		Vehicle: domain.VehicleInfo{Make: "Toyota", Model: "Land Cruiser"},
	}

	lead, err := svc.Create(context.Background(), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Status != domain.StatusNew || lead.Type != domain.LeadTypePurchase || lead.Priority != domain.PriorityNormal {
		t.Fatalf("unexpected defaults %+v", lead)
	}
	if lead.Contact.Phone != "+971501234567" {
		t.Fatalf("expected normalized phone, got %q", lead.Contact.Phone)
	}

	stocked := base
	stocked.Status = domain.StatusInventory
	if _, err := svc.Create(context.Background(), stocked); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for inventory intake, got %v", err)
	}
}

func TestTransitionReportsBlockingStep(t *testing.T) {
	lead := inspectionLead()
	lead.Price.MinSellingPrice = money("40000")
	repo := newMemRepo(lead)
	svc := newTestService(repo, nil, nil, nil)

	_, err := svc.Transition(context.Background(), uuid.New(), lead.ID, domain.StatusInventory, nil)
	if apperr.CodeOf(err) != domain.CodeNotReady {
		t.Fatalf("expected not_ready, got %v", err)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperr, got %T", err)
	}
	details, ok := appErr.Details.(domain.NotReadyDetails)
	if !ok || details.BlockingStep != "Inspection Report" || details.Percentage != 25 {
		t.Fatalf("unexpected details %+v", appErr.Details)
	}

	if got, _ := repo.Get(context.Background(), lead.ID); got.Status != domain.StatusInspection || got.Version != 1 {
		t.Fatalf("lead must be untouched, got %+v", got)
	}
}

func TestPurchaseRecordsPaymentAndPublishes(t *testing.T) {
	investorID := uuid.New()
	lead := inspectionLead()
	lead.Price.MinSellingPrice = money("40000")
	lead.Attachments = []domain.Attachment{{Category: domain.CategoryInspectionReport}}
	lead.Approval.Status = domain.ApprovalApproved
	lead.InvestorAllocations = []domain.InvestorAllocation{{InvestorID: investorID, Percentage: decimal.NewFromInt(100)}}

	repo := newMemRepo(lead)
	bus := &recordingBus{}
	svc := newTestService(repo, nil, memInvestors{investorID: "Faisal"}, bus)

	pd := payment.Details{ModeOfPayment: domain.PaymentBankTransfer, PaymentReceivedBy: " Accounts "}
	got, err := svc.Purchase(context.Background(), uuid.New(), lead.ID, pd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.StatusInventory || got.PaymentReceivedBy != "Accounts" {
		t.Fatalf("unexpected lead %+v", got)
	}
	if got.InvestorAllocations[0].ModeOfPayment != domain.PaymentBankTransfer {
		t.Fatalf("mode not recorded: %+v", got.InvestorAllocations)
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	changed, ok := bus.events[0].(events.LeadStatusChanged)
	if !ok || !changed.Purchase || changed.From != "inspection" || changed.To != "inventory" {
		t.Fatalf("unexpected event %+v", bus.events[0])
	}
}

func TestPurchaseWithoutPaymentModeIsRejected(t *testing.T) {
	investorID := uuid.New()
	lead := inspectionLead()
	lead.Price.MaxSellingPrice = money("52000")
	lead.Attachments = []domain.Attachment{{Category: domain.CategoryInspectionReport}}
	lead.Approval.Status = domain.ApprovalApproved
	lead.InvestorAllocations = []domain.InvestorAllocation{{InvestorID: investorID, InvestorName: "Faisal", Percentage: decimal.NewFromInt(100)}}
	svc := newTestService(newMemRepo(lead), nil, nil, nil)

	_, err := svc.Purchase(context.Background(), uuid.New(), lead.ID, payment.Details{PaymentReceivedBy: "Accounts"})
	if apperr.CodeOf(err) != domain.CodeIncompletePayment {
		t.Fatalf("expected incomplete_payment, got %v", err)
	}
}

func TestSetAllocationsResolvesNamesAndLocksAfterPurchase(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	lead := inspectionLead()
	lead.Price.PurchasedFinalPrice = money("46000")
	repo := newMemRepo(lead)
	svc := newTestService(repo, nil, memInvestors{a: "Hamdan", b: "Saeed"}, nil)

	got, err := svc.SetAllocations(context.Background(), lead.ID, []payment.AllocationInput{
		{InvestorID: a, Percentage: decimal.NewFromInt(25)},
		{InvestorID: b, Percentage: decimal.NewFromInt(75)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.InvestorAllocations[0].InvestorName != "Hamdan" || !got.InvestorAllocations[1].Amount.Equal(decimal.NewFromInt(34500)) {
		t.Fatalf("unexpected allocations %+v", got.InvestorAllocations)
	}

	_, err = svc.SetAllocations(context.Background(), lead.ID, []payment.AllocationInput{{InvestorID: uuid.New(), Percentage: decimal.NewFromInt(100)}})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected unknown investor validation error, got %v", err)
	}

	stocked := repo.leads[lead.ID]
	stocked.Status = domain.StatusInventory
	repo.leads[lead.ID] = stocked
	_, err = svc.SetAllocations(context.Background(), lead.ID, []payment.AllocationInput{{InvestorID: a, Percentage: decimal.NewFromInt(100)}})
	if apperr.CodeOf(err) != domain.CodeAllocationsLocked {
		t.Fatalf("expected allocations_locked, got %v", err)
	}
}

func TestUpdatePriceRepricesOpenAllocations(t *testing.T) {
	a := uuid.New()
	lead := inspectionLead()
	lead.InvestorAllocations = []domain.InvestorAllocation{{InvestorID: a, InvestorName: "Hamdan", Percentage: decimal.NewFromInt(100), Amount: decimal.NewFromInt(1)}}
	svc := newTestService(newMemRepo(lead), nil, nil, nil)

	got, err := svc.UpdatePrice(context.Background(), lead.ID, domain.PriceAnalysis{
		MinSellingPrice:     money("50000"),
		MaxSellingPrice:     money("55000"),
		PurchasedFinalPrice: money("47250.50"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.InvestorAllocations[0].Amount.Equal(decimal.RequireFromString("47250.50")) {
		t.Fatalf("expected repriced amount, got %s", got.InvestorAllocations[0].Amount)
	}

	_, err = svc.UpdatePrice(context.Background(), lead.ID, domain.PriceAnalysis{MinSellingPrice: money("60000"), MaxSellingPrice: money("50000")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected inverted range to be rejected, got %v", err)
	}
}

func TestApprovalCompletesOnceGroupsReachQuorum(t *testing.T) {
	a1, a2, b1, b2 := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	quorum := groupQuorum{groups: [][]uuid.UUID{{a1, a2}, {b1, b2}}, minGroups: 2}
	lead := inspectionLead()
	svc := newTestService(newMemRepo(lead), quorum, nil, nil)
	ctx := context.Background()

	if _, err := svc.RecordApproval(ctx, a1, lead.ID); apperr.CodeOf(err) != domain.CodeInvalidTransition {
		t.Fatalf("expected approval before submission to fail, got %v", err)
	}

	if _, err := svc.SubmitForApproval(ctx, a1, lead.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.SubmitForApproval(ctx, a1, lead.ID); apperr.CodeOf(err) != domain.CodeInvalidTransition {
		t.Fatalf("expected double submission to fail, got %v", err)
	}

	out, err := svc.RecordApproval(ctx, a1, lead.ID)
	if err != nil || out.Quorum || out.Lead.Approval.Status != domain.ApprovalPending {
		t.Fatalf("first approval: %+v, %v", out, err)
	}
	out, err = svc.RecordApproval(ctx, a2, lead.ID)
	if err != nil || out.Quorum {
		t.Fatalf("same-group approval must not complete: %+v, %v", out, err)
	}
	if ok, _ := svc.HasApprovalQuorum(ctx, lead.ID); ok {
		t.Fatal("expected no quorum with a single group")
	}

	out, err = svc.RecordApproval(ctx, b2, lead.ID)
	if err != nil {
		t.Fatalf("cross-group approval: %v", err)
	}
	if !out.Quorum || out.Lead.Approval.Status != domain.ApprovalApproved || out.Lead.Approval.ApprovedAt == nil {
		t.Fatalf("expected approval to complete, got %+v", out.Lead.Approval)
	}
	if len(out.Lead.Approval.Approvers) != 3 {
		t.Fatalf("expected 3 approvers, got %d", len(out.Lead.Approval.Approvers))
	}
}

func TestUpdateChecklistsRejectsImpossibleCounts(t *testing.T) {
	lead := inspectionLead()
	svc := newTestService(newMemRepo(lead), nil, nil, nil)

	_, err := svc.UpdateChecklists(context.Background(), lead.ID, nil, &domain.FinancialChecklist{TotalItems: 2, CompletedItems: 3})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	got, err := svc.UpdateChecklists(context.Background(), lead.ID, &domain.OperationalChecklist{Detailing: true}, nil)
	if err != nil || !got.Operational.Detailing {
		t.Fatalf("unexpected result %+v, %v", got.Operational, err)
	}
}

func TestGetMapsMissingLeadToNotFound(t *testing.T) {
	svc := newTestService(newMemRepo(), nil, nil, nil)
	if _, err := svc.ScoreReadiness(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatusChangeIsWrittenToActivity(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil, nil, nil)
	actor := uuid.New()
	leadID := uuid.New()

	err := svc.onStatusChanged(context.Background(), events.LeadStatusChanged{
		LeadID:    leadID,
		From:      "inspection",
		To:        "consignment",
		Purchase:  true,
		ActorID:   &actor,
		BulkJobID: "job-9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.activities) != 1 {
		t.Fatalf("expected one activity, got %d", len(repo.activities))
	}
	act := repo.activities[0]
	if act.Action != ActivityStatusChanged || act.LeadID != leadID || *act.ActorID != actor || act.Metadata["bulkJobId"] != "job-9" {
		t.Fatalf("unexpected activity %+v", act)
	}
}
