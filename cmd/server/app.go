package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/classplan/internal/config"
	"github.com/phrazzld/classplan/internal/domain/partition"
	"github.com/phrazzld/classplan/internal/platform/memory"
	"github.com/phrazzld/classplan/internal/platform/postgres"
	"github.com/phrazzld/classplan/internal/service"
	"github.com/phrazzld/classplan/internal/service/auth"
	"github.com/phrazzld/classplan/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	classRoomStore  store.ClassRoomStore
	groupStore      store.GroupStore
	annotationStore store.AnnotationStore

	jwtService        auth.JWTService
	classRoomService  service.ClassRoomService
	groupService      service.GroupService
	annotationService service.AnnotationService
}

// newApplication wires stores and services. A nil db selects the in-memory
// stores.
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

	if db == nil {
		app.classRoomStore = memory.NewClassRoomStore(logger)
		app.groupStore = memory.NewGroupStore(logger)
		app.annotationStore = memory.NewAnnotationStore(logger)
	} else {
		app.classRoomStore = postgres.NewPostgresClassRoomStore(db, logger)
		app.groupStore = postgres.NewPostgresGroupStore(db, logger)
		app.annotationStore = postgres.NewPostgresAnnotationStore(db, logger)
	}

	partitioner := partition.NewDefaultService()
	if cfg.Groups.RandomSeed != 0 {
		partitioner = partition.NewSeededService(cfg.Groups.RandomSeed)
		logger.Info("random groups are reproducible", slog.Uint64("seed", cfg.Groups.RandomSeed))
	}

	// Classroom and group operations share one lock table so they serialize
	// per classroom. Annotations are locked per owner on their own table.
	classRoomLocks := service.NewKeyedMutex()

	app.annotationService, err = service.NewAnnotationService(app.annotationStore, service.NewKeyedMutex(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create annotation service: %w", err)
	}
	app.classRoomService, err = service.NewClassRoomService(
		app.classRoomStore,
		app.groupStore,
		app.annotationService,
		classRoomLocks,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create classroom service: %w", err)
	}
	app.groupService, err = service.NewGroupService(
		app.classRoomStore,
		app.groupStore,
		partitioner,
		classRoomLocks,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create group service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run serves the API until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
