package app

import (
	"context"
	"errors"
	"fmt"

	"taskHierarchy/internal/config"
	"taskHierarchy/internal/logger"
	"taskHierarchy/internal/migrations"
	"taskHierarchy/internal/repository/task/inmemory"
	"taskHierarchy/internal/repository/task/postgres"
	"taskHierarchy/internal/repository/task/sqlite"
	"taskHierarchy/internal/service"
	"taskHierarchy/internal/worker"

	"go.uber.org/zap"
)

var ErrSchemaUnsupported = errors.New("schema provisioning is not available for this repository type")

type App struct {
	config      *config.Config
	repository  service.TaskRepository
	service     *service.TaskQueryService
	worker      *worker.HierarchyWorker
	applySchema func() error
	shutdowns   []func() // run in reverse order by Shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: flushing logs")
		logger.Sync()
	})

	if err := a.initRepository(ctx); err != nil {
		a.Shutdown()
		return err
	}

	a.service = service.NewTaskQueryService(a.repository,
		service.WithSlowQuery(a.config.Database.SlowQuery),
		service.WithQueryTimeout(a.config.Database.QueryTimeout))

	interval := a.config.Audit.Interval
	a.worker = worker.NewHierarchyWorker(a.service, &interval)

	logger.Info("App: initialised", zap.String("repository", a.config.Repository.Type))
	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		storage, err := postgres.New(ctx, a.config.Database)
		if err != nil {
			return fmt.Errorf("init postgres repository: %w", err)
		}
		a.repository = storage
		a.applySchema = func() error { return migrations.ApplyPostgres(a.config.Database.URL) }
		a.shutdowns = append(a.shutdowns, storage.Close)

	case config.RepositorySQLite:
		storage, err := sqlite.Open(ctx, a.config.SQLite.Path)
		if err != nil {
			return fmt.Errorf("init sqlite repository: %w", err)
		}
		storage.WithSlowQuery(a.config.Database.SlowQuery)
		a.repository = storage
		a.applySchema = func() error { return migrations.ApplySQLite(storage.DB().DB) }
		a.shutdowns = append(a.shutdowns, func() {
			if err := storage.Close(); err != nil {
				logger.Error("App: closing sqlite", err)
			}
		})

	case config.RepositoryInMemory:
		var (
			storage *inmemory.TaskStorage
			err     error
		)
		if a.config.Repository.Fixture != "" {
			storage, err = inmemory.LoadFixture(a.config.Repository.Fixture)
		} else {
			storage, err = inmemory.NewTaskStorage(inmemory.Tables{})
		}
		if err != nil {
			return fmt.Errorf("init in-memory repository: %w", err)
		}
		a.repository = storage
		a.shutdowns = append(a.shutdowns, storage.Close)

	default:
		return fmt.Errorf("unknown repository type %q", a.config.Repository.Type)
	}
	return nil
}

func (a *App) Service() *service.TaskQueryService {
	return a.service
}

func (a *App) Worker() *worker.HierarchyWorker {
	return a.worker
}

// ApplySchema provisions the SQL schema for postgres and sqlite backends.
func (a *App) ApplySchema() error {
	if a.applySchema == nil {
		return fmt.Errorf("%w: %s", ErrSchemaUnsupported, a.config.Repository.Type)
	}
	return a.applySchema()
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
