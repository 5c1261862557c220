package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/daybreak-app/daybreak-api/internal/config"
	"github.com/daybreak-app/daybreak-api/internal/events"
	"github.com/daybreak-app/daybreak-api/internal/extraction"
	"github.com/daybreak-app/daybreak-api/internal/platform/gemini"
	"github.com/daybreak-app/daybreak-api/internal/platform/postgres"
	"github.com/daybreak-app/daybreak-api/internal/service"
	"github.com/daybreak-app/daybreak-api/internal/service/auth"
	"github.com/daybreak-app/daybreak-api/internal/store"
	"github.com/daybreak-app/daybreak-api/internal/task"
)

// application holds the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	importJobStore  store.ImportJobStore
	curriculumStore store.CurriculumStore

	jwtService    auth.JWTService
	importService *service.ImportService

	eventEmitter events.EventEmitter
	taskRunner   *task.TaskRunner
}

// newApplication creates a new application instance with all dependencies
// initialized. The task runner is started last so its startup recovery sees
// the final state of the stores.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.importJobStore = postgres.NewPostgresImportJobStore(db, logger)
	app.curriculumStore = postgres.NewPostgresCurriculumStore(db, logger)

	extractor := extraction.NewExtractor(
		cfg.Import.MaxSourceBytes,
		cfg.Import.MaxSourceFiles,
		logger,
	)

	capability, err := gemini.NewCapability(logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generation capability: %w", err)
	}
	logger.Info("Generation capability initialized", "model", cfg.LLM.ModelName)

	emitter := events.NewInMemoryEventEmitter(logger)
	app.eventEmitter = emitter

	app.importService, err = service.NewImportService(
		db,
		app.importJobStore,
		app.curriculumStore,
		extractor,
		capability,
		app.eventEmitter,
		cfg.LLM.ModelName,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create import service: %w", err)
	}

	app.taskRunner = task.NewTaskRunner(app.importJobStore, task.TaskRunnerConfig{
		WorkerCount:           cfg.Import.WorkerCount,
		QueueSize:             cfg.Import.QueueSize,
		StuckJobAge:           time.Duration(cfg.Import.StuckJobMinutes) * time.Minute,
		StuckJobCheckInterval: time.Minute,
	}, logger)

	factory, err := task.NewPipelineTaskFactory(app.importService)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline task factory: %w", err)
	}
	emitter.RegisterHandler(task.NewTaskRequestHandler(app.taskRunner, factory, logger))

	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
