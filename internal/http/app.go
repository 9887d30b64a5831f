package http

import (
	"context"

	"dealership_backend/internal/events"
	"dealership_backend/platform/config"
	"dealership_backend/platform/logger"
)

// RouterConfig is what the router reads: listen, CORS and rate-limit
// settings plus the JWT secret for the Protected and Admin groups.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs /api/ready. The pgx pool adapter implements it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is assembled in cmd/api and handed to router.New.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health may be nil; readiness then always reports ok.
	Health   HealthChecker
	EventBus events.Bus
	// Modules are registered in order: leads, then approval groups.
	Modules []Module
}
