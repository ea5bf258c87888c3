package service

import (
	"context"
	"errors"
	"time"

	"taskHierarchy/internal/logger"
	"taskHierarchy/internal/models/task"
	repo "taskHierarchy/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultSlowQuery = 100 * time.Millisecond

// TaskQueryService is the caller-facing side of the query facade. It holds no state
// between calls; every method is a single request against the repository.
type TaskQueryService struct {
	repo      TaskRepository
	slowQuery time.Duration
	timeout   time.Duration
}

// Snapshot is every projection of the hierarchy read in one go.
type Snapshot struct {
	Tasks         []*task.Task         `json:"tasks" yaml:"tasks"`
	CompoundTasks []*task.CompoundTask `json:"compound_tasks" yaml:"compound_tasks"`
	Subtasks      []*task.Subtask      `json:"subtasks" yaml:"subtasks"`
	Projects      []*task.Project      `json:"projects" yaml:"projects"`
}

func NewTaskQueryService(repo TaskRepository, opts ...Option) *TaskQueryService {
	s := &TaskQueryService{
		repo:      repo,
		slowQuery: defaultSlowQuery,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *TaskQueryService) HealthCheck(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.HealthCheck(ctx); err != nil {
		logger.Error("Service: health check failed", err)
		return fromRepository("health_check", err)
	}
	return nil
}

// ListTasks returns every task ordered by name.
func (s *TaskQueryService) ListTasks(ctx context.Context) ([]*task.Task, error) {
	return list(ctx, s, "list_tasks", s.repo.FindAllOrderedByName)
}

// ListAllTasks returns every task in storage order.
func (s *TaskQueryService) ListAllTasks(ctx context.Context) ([]*task.Task, error) {
	return list(ctx, s, "list_all_tasks", s.repo.FindAll)
}

func (s *TaskQueryService) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	return run(ctx, s, "get_task",
		func(ctx context.Context) (*task.Task, error) { return s.repo.FindByID(ctx, id) },
		func(*task.Task) zap.Field { return zap.Int64("id", id) })
}

func (s *TaskQueryService) CountTasks(ctx context.Context) (int64, error) {
	return run(ctx, s, "count_tasks", s.repo.Count,
		func(count int64) zap.Field { return zap.Int64("count", count) })
}

func (s *TaskQueryService) TaskExists(ctx context.Context, id int64) (bool, error) {
	return run(ctx, s, "task_exists",
		func(ctx context.Context) (bool, error) { return s.repo.ExistsByID(ctx, id) },
		func(exists bool) zap.Field { return zap.Bool("exists", exists) })
}

func (s *TaskQueryService) ListCompoundTasks(ctx context.Context) ([]*task.CompoundTask, error) {
	return list(ctx, s, "list_compound_tasks", s.repo.FindAllCompoundTasks)
}

func (s *TaskQueryService) ListSubtasks(ctx context.Context) ([]*task.Subtask, error) {
	return list(ctx, s, "list_subtasks", s.repo.FindAllSubtasks)
}

func (s *TaskQueryService) ListProjects(ctx context.Context) ([]*task.Project, error) {
	return list(ctx, s, "list_projects", s.repo.FindAllProjects)
}

// Snapshot reads the four projections concurrently. Any failure fails the whole
// snapshot; nothing partial is returned.
func (s *TaskQueryService) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.Tasks, err = s.ListTasks(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.CompoundTasks, err = s.ListCompoundTasks(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Subtasks, err = s.ListSubtasks(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Projects, err = s.ListProjects(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// ValidateHierarchy checks that no task is both a compound task and a subtask.
// Tasks with neither extension are valid leaves.
func (s *TaskQueryService) ValidateHierarchy(ctx context.Context) error {
	ids, err := list(ctx, s, "overlapping_kinds", s.repo.FindOverlappingKinds)
	if err != nil {
		return err
	}

	if len(ids) > 0 {
		logger.Warn("Service: hierarchy violation", zap.Int64s("ids", ids))
		return NewHierarchyViolation(ids)
	}
	return nil
}

func list[E any](ctx context.Context, s *TaskQueryService, operation string, find func(context.Context) ([]E, error)) ([]E, error) {
	return run(ctx, s, operation, find, func(items []E) zap.Field { return zap.Int("rows", len(items)) })
}

// run executes one repository call with a fresh query id. summary describes a
// successful result in the log.
func run[T any](ctx context.Context, s *TaskQueryService, operation string, find func(context.Context) (T, error), summary func(T) zap.Field) (T, error) {
	start := time.Now()
	queryID := uuid.New().String()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	logger.Debug("Service: query started",
		zap.String("query_id", queryID),
		zap.String("operation", operation))

	result, err := find(ctx)
	if err != nil {
		var zero T
		if errors.Is(err, repo.ErrNotFound) {
			logger.Debug("Service: nothing found",
				zap.String("query_id", queryID),
				zap.String("operation", operation))
			return zero, fromRepository(operation, err)
		}

		logger.Error("Service: query failed", err,
			zap.String("query_id", queryID),
			zap.String("operation", operation),
			zap.Duration("ms", time.Since(start)))
		return zero, fromRepository(operation, err)
	}

	elapsed := time.Since(start)
	if elapsed > s.slowQuery {
		logger.Warn("Service: slow query",
			zap.String("query_id", queryID),
			zap.String("operation", operation),
			zap.Duration("ms", elapsed))
	}

	logger.Debug("Service: query finished",
		zap.String("query_id", queryID),
		zap.String("operation", operation),
		summary(result),
		zap.Duration("ms", elapsed))
	return result, nil
}

func (s *TaskQueryService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
