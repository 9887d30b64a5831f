package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dealership_backend/internal/adapters/storage"
	"dealership_backend/internal/approvals"
	"dealership_backend/internal/directory"
	"dealership_backend/internal/events"
	apphttp "dealership_backend/internal/http"
	"dealership_backend/internal/http/router"
	"dealership_backend/internal/leads"
	"dealership_backend/internal/leads/service"
	"dealership_backend/internal/scheduler"
	"dealership_backend/platform/config"
	"dealership_backend/platform/db"
	"dealership_backend/platform/logger"
	"dealership_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	objectStore := initStorage(ctx, cfg, log)

	jobs, closeJobs := initJobQueue(cfg, log)
	if closeJobs != nil {
		defer closeJobs()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	people := directory.New(pool)
	approvalsModule := approvals.NewModule(pool, people, eventBus, val, cfg, log)
	leadsModule, err := leads.NewModule(leads.Deps{
		Pool:      pool,
		Directory: people,
		Quorum:    approvalsModule.Service(),
		Jobs:      jobs,
		Storage:   objectStore,
		EventBus:  eventBus,
	}, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			approvalsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initStorage returns nil when MinIO is not configured; attachment uploads
// are then rejected.
func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.ObjectStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; attachment uploads disabled")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketLeadAttachments()
	if err := withRetry(ctx, log, "ensure lead-attachments bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "leadAttachmentsBucket", bucket)
	return storageSvc
}

// initJobQueue returns nil when redis is not configured; bulk requests then
// run synchronously only.
func initJobQueue(cfg config.SchedulerConfig, log *logger.Logger) (service.JobQueue, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; async bulk jobs disabled")
		return nil, nil
	}

	rdb, err := scheduler.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg, scheduler.NewJobStore(rdb, cfg.GetBulkJobResultTTL()))
	if err != nil {
		log.Error("failed to initialize bulk job client", "error", err)
		_ = rdb.Close()
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
		_ = rdb.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
