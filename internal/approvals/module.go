// Package approvals provides the approval group bounded context module.
package approvals

import (
	"dealership_backend/internal/approvals/handler"
	"dealership_backend/internal/approvals/repository"
	"dealership_backend/internal/approvals/service"
	"dealership_backend/internal/directory"
	"dealership_backend/internal/events"
	apphttp "dealership_backend/internal/http"
	"dealership_backend/platform/config"
	"dealership_backend/platform/logger"
	"dealership_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the approvals bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the group repository, the admin directory and the service.
func NewModule(pool *pgxpool.Pool, admins *directory.Repository, eventBus events.Bus, val *validator.Validator, cfg config.PipelineConfig, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), admins, eventBus, cfg.GetApprovalMinGroups(), log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "approvals"
}

// Service exposes the quorum checker to the leads module.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the admin-only group management routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/approval-groups"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
