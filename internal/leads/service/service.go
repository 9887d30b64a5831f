// Package service is the entry point of the lead pipeline: it loads leads,
// runs the guarded operations against fresh reads and persists the result
// with the version it read.
package service

import (
	"context"
	"errors"
	"strings"

	"dealership_backend/internal/adapters/storage"
	"dealership_backend/internal/directory"
	"dealership_backend/internal/events"
	"dealership_backend/internal/leads/bulk"
	"dealership_backend/internal/leads/domain"
	"dealership_backend/internal/leads/payment"
	"dealership_backend/internal/leads/pipeline"
	"dealership_backend/internal/leads/repository"
	"dealership_backend/platform/apperr"
	"dealership_backend/platform/logger"
	"dealership_backend/platform/phone"
	"dealership_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Repository is the lead persistence the service needs.
type Repository interface {
	bulk.Store
	List(ctx context.Context, params repository.ListParams) ([]domain.Lead, int, error)
	AddAttachment(ctx context.Context, params repository.CreateAttachmentParams) (domain.Attachment, error)
	AddActivity(ctx context.Context, params repository.ActivityParams) error
	ListActivity(ctx context.Context, leadID uuid.UUID, limit int) ([]repository.Activity, error)
}

// InvestorDirectory resolves investor references.
type InvestorDirectory interface {
	ResolveInvestor(ctx context.Context, id uuid.UUID) (directory.Person, error)
}

// JobQueue runs bulk requests in the background worker.
type JobQueue interface {
	EnqueueBulk(ctx context.Context, req bulk.Request) (bulk.Job, error)
	BulkJob(ctx context.Context, id string) (bulk.Job, error)
}

// Deps bundles the collaborators of the service. Jobs and Storage are
// optional; the operations that need them fail with a clear error.
type Deps struct {
	Repo              Repository
	Machine           *pipeline.Machine
	Payments          *payment.Validator
	Quorum            pipeline.QuorumChecker
	Investors         InvestorDirectory
	Executor          *bulk.Executor
	Jobs              JobQueue
	Storage           storage.ObjectStore
	AttachmentsBucket string
	EventBus          events.Bus
	MaxAttempts       int
	PhoneRegion       string
}

type Service struct {
	repo        Repository
	machine     *pipeline.Machine
	payments    *payment.Validator
	quorum      pipeline.QuorumChecker
	investors   InvestorDirectory
	executor    *bulk.Executor
	jobs        JobQueue
	storage     storage.ObjectStore
	bucket      string
	eventBus    events.Bus
	maxAttempts int
	phoneRegion string
	log         *logger.Logger
}

func New(deps Deps, log *logger.Logger) *Service {
	if deps.MaxAttempts < 1 {
		deps.MaxAttempts = 3
	}
	return &Service{
		repo:        deps.Repo,
		machine:     deps.Machine,
		payments:    deps.Payments,
		quorum:      deps.Quorum,
		investors:   deps.Investors,
		executor:    deps.Executor,
		jobs:        deps.Jobs,
		storage:     deps.Storage,
		bucket:      deps.AttachmentsBucket,
		eventBus:    deps.EventBus,
		maxAttempts: deps.MaxAttempts,
		phoneRegion: deps.PhoneRegion,
		log:         log,
	}
}

// Get returns one lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Lead{}, s.mapErr(id, err)
	}
	return lead, nil
}

// ListResult is one page of leads.
type ListResult struct {
	Items []domain.Lead `json:"items"`
	Total int           `json:"total"`
}

func (s *Service) List(ctx context.Context, params repository.ListParams) (ListResult, error) {
	if params.Limit > 200 {
		params.Limit = 200
	}
	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

// Create registers an intake lead. Only intake statuses are accepted;
// every later status must be reached through transitions.
func (s *Service) Create(ctx context.Context, in domain.NewLead) (domain.Lead, error) {
	in = s.normalizeNewLead(in)
	if !in.Status.IsIntake() {
		return domain.Lead{}, apperr.Validation("a lead can only be created as new or cancelled").
			WithDetails(map[string]string{"status": string(in.Status)})
	}
	if in.Contact.FullName == "" || in.Vehicle.Make == "" || in.Vehicle.Model == "" {
		return domain.Lead{}, apperr.Validation("fullName, make and model are required")
	}

	lead, err := s.repo.Create(ctx, in)
	if err != nil {
		return domain.Lead{}, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.LeadCreated{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			Source:    lead.Source,
		})
	}
	return lead, nil
}

func (s *Service) normalizeNewLead(in domain.NewLead) domain.NewLead {
	if in.Type == "" {
		in.Type = domain.LeadTypePurchase
	}
	if in.Status == "" {
		in.Status = domain.StatusNew
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityNormal
	}
	in.Contact.FullName = sanitize.Line(in.Contact.FullName)
	in.Contact.Email = strings.ToLower(strings.TrimSpace(in.Contact.Email))
	in.Contact.Phone = phone.NormalizeE164(in.Contact.Phone, s.phoneRegion)
	in.Vehicle.Make = sanitize.Line(in.Vehicle.Make)
	in.Vehicle.Model = sanitize.Line(in.Vehicle.Model)
	in.Vehicle.Color = sanitize.Line(in.Vehicle.Color)
	in.Vehicle.Trim = sanitize.Line(in.Vehicle.Trim)
	in.Vehicle.Region = sanitize.Line(in.Vehicle.Region)
	in.Vehicle.VIN = strings.ToUpper(strings.TrimSpace(in.Vehicle.VIN))
	in.Source = sanitize.Line(in.Source)
	return in
}

// Activity returns the audit trail of a lead.
func (s *Service) Activity(ctx context.Context, id uuid.UUID) ([]repository.Activity, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListActivity(ctx, id, 100)
}

// mutate runs fn against a fresh read and persists its patch, retrying on
// version conflicts.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn pipeline.MutateFunc) (before, after domain.Lead, err error) {
	before, after, err = pipeline.Apply(ctx, s.repo, id, s.maxAttempts, fn)
	if err != nil {
		return before, domain.Lead{}, s.mapErr(id, err)
	}
	return before, after, nil
}

// mapErr turns store sentinels into caller-facing errors. Guard and
// validation errors pass through unchanged; anything else is logged and
// wrapped as internal.
func (s *Service) mapErr(id uuid.UUID, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return apperr.NotFound("lead not found")
	case errors.Is(err, domain.ErrVersionConflict):
		return domain.ErrVersionConflictFor(id)
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.log.DatabaseError("mutate lead "+id.String(), err)
	return apperr.Wrap(apperr.KindInternal, "lead could not be updated", err).WithOp("leads.mutate")
}

func actorRef(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
