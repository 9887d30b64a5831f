// Package leads provides the lead pipeline bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"dealership_backend/internal/adapters/storage"
	"dealership_backend/internal/directory"
	"dealership_backend/internal/events"
	apphttp "dealership_backend/internal/http"
	"dealership_backend/internal/leads/bulk"
	"dealership_backend/internal/leads/csvimport"
	"dealership_backend/internal/leads/handler"
	"dealership_backend/internal/leads/payment"
	"dealership_backend/internal/leads/pipeline"
	"dealership_backend/internal/leads/repository"
	"dealership_backend/internal/leads/service"
	"dealership_backend/internal/leads/transport"
	"dealership_backend/platform/config"
	"dealership_backend/platform/logger"
	"dealership_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps lists the collaborators owned by other modules. Jobs and Storage may
// be nil; async bulk runs and uploads are then rejected.
type Deps struct {
	Pool      *pgxpool.Pool
	Directory *directory.Repository
	Quorum    pipeline.QuorumChecker
	Jobs      service.JobQueue
	Storage   storage.ObjectStore
	EventBus  events.Bus
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	executor *bulk.Executor
}

// Pipeline is the guarded core shared by the API and the bulk worker.
type Pipeline struct {
	Repo     *repository.Repository
	Payments *payment.Validator
	Machine  *pipeline.Machine
	Executor *bulk.Executor
}

// NewPipeline builds the repository, guards and bulk executor on pool.
func NewPipeline(pool *pgxpool.Pool, investors payment.InvestorResolver, eventBus events.Bus, cfg config.PipelineConfig, log *logger.Logger) Pipeline {
	repo := repository.New(pool)
	payments := payment.NewValidator(investors)
	machine := pipeline.New(payments)
	parser := csvimport.NewParser(cfg.GetPhoneDefaultRegion(), nil)
	executor := bulk.NewExecutor(repo, machine, parser, eventBus, log, bulk.Options{
		Concurrency: cfg.GetBulkConcurrency(),
		MaxAttempts: cfg.GetBulkMaxAttempts(),
	})
	return Pipeline{Repo: repo, Payments: payments, Machine: machine, Executor: executor}
}

// NewModule wires the lead service and subscribes its audit trail to the bus.
func NewModule(deps Deps, val *validator.Validator, cfg interface {
	config.PipelineConfig
	config.MinIOConfig
}, log *logger.Logger) (*Module, error) {
	if err := transport.RegisterValidations(val); err != nil {
		return nil, err
	}

	p := NewPipeline(deps.Pool, deps.Directory, deps.EventBus, cfg, log)
	svc := service.New(service.Deps{
		Repo:              p.Repo,
		Machine:           p.Machine,
		Payments:          p.Payments,
		Quorum:            deps.Quorum,
		Investors:         deps.Directory,
		Executor:          p.Executor,
		Jobs:              deps.Jobs,
		Storage:           deps.Storage,
		AttachmentsBucket: cfg.GetMinioBucketLeadAttachments(),
		EventBus:          deps.EventBus,
		MaxAttempts:       cfg.GetBulkMaxAttempts(),
		PhoneRegion:       cfg.GetPhoneDefaultRegion(),
	}, log)
	svc.RegisterSubscriptions(deps.EventBus)

	return &Module{
		handler:  handler.New(svc, val),
		service:  svc,
		executor: p.Executor,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service exposes the lead service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// Executor exposes the bulk executor to the background worker.
func (m *Module) Executor() *bulk.Executor {
	return m.executor
}

// RegisterRoutes mounts the authenticated lead routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
