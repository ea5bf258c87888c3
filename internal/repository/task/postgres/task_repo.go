package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"taskHierarchy/internal/config"
	"taskHierarchy/internal/logger"
	"taskHierarchy/internal/models/task"
	repo "taskHierarchy/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	queryAllOrderedByName = `SELECT id, name
				FROM tbl_task
				ORDER BY name ASC, id ASC`

	queryAll = `SELECT id, name FROM tbl_task`

	queryByID = `SELECT id, name
				FROM tbl_task
				WHERE id = $1`

	queryCount = `SELECT count(*) FROM tbl_task`

	queryExistsByID = `SELECT EXISTS (SELECT 1 FROM tbl_task WHERE id = $1)`

	queryAllCompoundTasks = `SELECT t.id, t.name
				FROM tbl_task t
				JOIN tbl_compound_task c ON c.id = t.id
				ORDER BY t.id`

	queryAllSubtasks = `SELECT t.id, t.name
				FROM tbl_task t
				JOIN tbl_subtask s ON s.id = t.id
				ORDER BY t.id`

	queryAllProjects = `SELECT t.id, t.name
				FROM tbl_task t
				JOIN tbl_compound_task c ON c.id = t.id
				JOIN tbl_project p ON p.id = c.id
				ORDER BY t.id`

	queryOverlappingKinds = `SELECT c.id
				FROM tbl_compound_task c
				JOIN tbl_subtask s ON s.id = c.id
				ORDER BY c.id`
)

const defaultSlowQuery = 100 * time.Millisecond

type Storage struct {
	pool      *pgxpool.Pool
	slowQuery time.Duration
}

type taskRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: invalid connection string", err)
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = cfg.MinConnections
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("Repository: failed to create pool", err)
		return nil, fmt.Errorf("%w: create pool: %w", repo.ErrStorageUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: ping failed", err)
		return nil, fmt.Errorf("%w: ping: %w", repo.ErrStorageUnavailable, err)
	}

	slow := cfg.SlowQuery
	if slow <= 0 {
		slow = defaultSlowQuery
	}

	logger.Info("Repository: connected to PostgreSQL",
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns))
	return &Storage{pool: pool, slowQuery: slow}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: closed all PostgreSQL connections")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: ping failed", err)
		return fmt.Errorf("%w: ping: %w", repo.ErrStorageUnavailable, err)
	}
	logger.Debug("Repository: connection healthy")
	return nil
}

// FindAllOrderedByName returns every task ordered by name, ties broken by id.
func (s *Storage) FindAllOrderedByName(ctx context.Context) ([]*task.Task, error) {
	rows, err := s.collect(ctx, "tasks_by_name", queryAllOrderedByName)
	if err != nil {
		return nil, err
	}

	tasks := make([]*task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, &task.Task{ID: row.ID, Name: row.Name})
	}
	return tasks, nil
}

// FindAll returns every task in no particular order.
func (s *Storage) FindAll(ctx context.Context) ([]*task.Task, error) {
	rows, err := s.collect(ctx, "all_tasks", queryAll)
	if err != nil {
		return nil, err
	}

	tasks := make([]*task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, &task.Task{ID: row.ID, Name: row.Name})
	}
	return tasks, nil
}

func (s *Storage) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	rows, err := s.collect(ctx, "task_by_id", queryByID, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: id %d", repo.ErrNotFound, id)
	}
	return &task.Task{ID: rows[0].ID, Name: rows[0].Name}, nil
}

func (s *Storage) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.scalar(ctx, "count_tasks", queryCount, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Storage) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := s.scalar(ctx, "task_exists", queryExistsByID, &exists, id); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Storage) FindAllCompoundTasks(ctx context.Context) ([]*task.CompoundTask, error) {
	rows, err := s.collect(ctx, "compound_tasks", queryAllCompoundTasks)
	if err != nil {
		return nil, err
	}

	tasks := make([]*task.CompoundTask, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, task.NewCompoundTask(row.ID, row.Name))
	}
	return tasks, nil
}

func (s *Storage) FindAllSubtasks(ctx context.Context) ([]*task.Subtask, error) {
	rows, err := s.collect(ctx, "subtasks", queryAllSubtasks)
	if err != nil {
		return nil, err
	}

	tasks := make([]*task.Subtask, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, task.NewSubtask(row.ID, row.Name))
	}
	return tasks, nil
}

func (s *Storage) FindAllProjects(ctx context.Context) ([]*task.Project, error) {
	rows, err := s.collect(ctx, "projects", queryAllProjects)
	if err != nil {
		return nil, err
	}

	projects := make([]*task.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, task.NewProject(row.ID, row.Name))
	}
	return projects, nil
}

// FindOverlappingKinds returns ids registered as both compound task and subtask.
func (s *Storage) FindOverlappingKinds(ctx context.Context) ([]int64, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, queryOverlappingKinds)
	if err != nil {
		logger.Error("Repository: overlap query failed", err, zap.Duration("ms", time.Since(start)))
		return nil, classifyQueryErr(err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		logger.Error("Repository: failed to read overlap rows", err, zap.Duration("ms", time.Since(start)))
		return nil, classifyRowsErr(err)
	}

	s.warnIfSlow("overlapping_kinds", start)
	return ids, nil
}

func (s *Storage) collect(ctx context.Context, name, query string, args ...any) ([]taskRow, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: query failed", err,
			zap.String("query", name),
			zap.Duration("ms", time.Since(start)))
		return nil, classifyQueryErr(err)
	}

	result, err := pgx.CollectRows(rows, pgx.RowToStructByName[taskRow])
	if err != nil {
		logger.Error("Repository: failed to read rows", err,
			zap.String("query", name),
			zap.Duration("ms", time.Since(start)))
		return nil, classifyRowsErr(err)
	}

	s.warnIfSlow(name, start)
	return result, nil
}

// scalar reads a single-column, single-row result into dst.
func (s *Storage) scalar(ctx context.Context, name, query string, dst any, args ...any) error {
	start := time.Now()

	if err := s.pool.QueryRow(ctx, query, args...).Scan(dst); err != nil {
		logger.Error("Repository: query failed", err,
			zap.String("query", name),
			zap.Duration("ms", time.Since(start)))

		var scanErr pgx.ScanArgError
		if errors.As(err, &scanErr) {
			return fmt.Errorf("%w: %w", repo.ErrMapping, err)
		}
		return classifyQueryErr(err)
	}

	s.warnIfSlow(name, start)
	return nil
}

func (s *Storage) warnIfSlow(name string, start time.Time) {
	if elapsed := time.Since(start); elapsed > s.slowQuery {
		logger.Warn("Repository: slow query",
			zap.String("query", name),
			zap.Duration("ms", elapsed))
	}
}

// classifyQueryErr handles errors raised before any row was read. Anything that is
// neither a server error nor a context error means the store could not be reached.
// The pool may dial mid-run, so a server error can also arrive from a failed connect.
func classifyQueryErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", repo.ErrStorageUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPgErr(pgErr, err)
	}
	return fmt.Errorf("%w: %w", repo.ErrStorageUnavailable, err)
}

// classifyRowsErr handles errors raised while iterating. Here the default flips:
// a non-server, non-network error comes from scanning and is a mapping failure.
func classifyRowsErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", repo.ErrStorageUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPgErr(pgErr, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", repo.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%w: %w", repo.ErrMapping, err)
}

func classifyPgErr(pgErr *pgconn.PgError, err error) error {
	switch {
	case len(pgErr.Code) < 2:
	case pgErr.Code[:2] == "42":
		return fmt.Errorf("%w: %w", repo.ErrQuerySyntax, err)
	// 28: auth rejected, 3D: database gone; both mean no usable connection
	case pgErr.Code[:2] == "08", pgErr.Code[:2] == "57", pgErr.Code[:2] == "53",
		pgErr.Code[:2] == "28", pgErr.Code[:2] == "3D":
		return fmt.Errorf("%w: %w", repo.ErrStorageUnavailable, err)
	case pgErr.Code[:2] == "22":
		return fmt.Errorf("%w: %w", repo.ErrMapping, err)
	}
	return fmt.Errorf("query: %w", err)
}
