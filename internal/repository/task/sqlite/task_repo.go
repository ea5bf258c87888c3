package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskHierarchy/internal/logger"
	"taskHierarchy/internal/models/task"
	repo "taskHierarchy/internal/repository"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	queryAllOrderedByName = `SELECT id, name
				FROM tbl_task
				ORDER BY name ASC, id ASC`

	queryAll = `SELECT id, name FROM tbl_task`

	queryByID = `SELECT id, name
				FROM tbl_task
				WHERE id = ?`

	queryCount = `SELECT count(*) FROM tbl_task`

	queryExistsByID = `SELECT EXISTS (SELECT 1 FROM tbl_task WHERE id = ?)`

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

const driverName = "sqlite"

const defaultSlowQuery = 100 * time.Millisecond

type Storage struct {
	db        *sqlx.DB
	slowQuery time.Duration
}

type taskRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Open opens (creating if needed) the database file at path. Pragmas go through the
// DSN so that every pooled connection gets them.
func Open(ctx context.Context, path string) (*Storage, error) {
	db, err := sqlx.Open(driverName, dsn(path))
	if err != nil {
		logger.Error("Repository: failed to open SQLite", err, zap.String("path", path))
		return nil, fmt.Errorf("%w: open sqlite: %w", repo.ErrStorageUnavailable, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("Repository: ping failed", err, zap.String("path", path))
		return nil, fmt.Errorf("%w: ping: %w", repo.ErrStorageUnavailable, err)
	}

	logger.Info("Repository: opened SQLite", zap.String("path", path))
	return NewWithDB(db), nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewWithDB(db *sqlx.DB) *Storage {
	return &Storage{db: db, slowQuery: defaultSlowQuery}
}

// WithSlowQuery sets the threshold above which a query is logged as slow.
func (s *Storage) WithSlowQuery(d time.Duration) *Storage {
	if d > 0 {
		s.slowQuery = d
	}
	return s
}

// DB exposes the handle for schema provisioning.
func (s *Storage) DB() *sqlx.DB {
	return s.db
}

func (s *Storage) Close() error {
	logger.Info("Repository: closing SQLite")
	return s.db.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: ping failed", err)
		return fmt.Errorf("%w: ping: %w", repo.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Storage) FindAllOrderedByName(ctx context.Context) ([]*task.Task, error) {
	rows, err := s.selectRows(ctx, "tasks_by_name", queryAllOrderedByName)
	if err != nil {
		return nil, err
	}

	tasks := make([]*task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, &task.Task{ID: row.ID, Name: row.Name})
	}
	return tasks, nil
}

func (s *Storage) FindAll(ctx context.Context) ([]*task.Task, error) {
	rows, err := s.selectRows(ctx, "all_tasks", queryAll)
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
	rows, err := s.selectRows(ctx, "task_by_id", queryByID, id)
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
	rows, err := s.selectRows(ctx, "compound_tasks", queryAllCompoundTasks)
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
	rows, err := s.selectRows(ctx, "subtasks", queryAllSubtasks)
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
	rows, err := s.selectRows(ctx, "projects", queryAllProjects)
	if err != nil {
		return nil, err
	}

	projects := make([]*task.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, task.NewProject(row.ID, row.Name))
	}
	return projects, nil
}

func (s *Storage) FindOverlappingKinds(ctx context.Context) ([]int64, error) {
	start := time.Now()

	rows, err := s.db.QueryxContext(ctx, queryOverlappingKinds)
	if err != nil {
		logger.Error("Repository: overlap query failed", err, zap.Duration("ms", time.Since(start)))
		return nil, classifyQueryErr(err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			logger.Error("Repository: failed to scan overlap row", err)
			return nil, fmt.Errorf("%w: %w", repo.ErrMapping, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: row iteration failed", err)
		return nil, classifyQueryErr(err)
	}

	s.warnIfSlow("overlapping_kinds", start)
	return ids, nil
}

func (s *Storage) selectRows(ctx context.Context, name, query string, args ...any) ([]taskRow, error) {
	start := time.Now()

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: query failed", err,
			zap.String("query", name),
			zap.Duration("ms", time.Since(start)))
		return nil, classifyQueryErr(err)
	}
	defer rows.Close()

	result := []taskRow{}
	for rows.Next() {
		var row taskRow
		if err := rows.StructScan(&row); err != nil {
			logger.Error("Repository: failed to scan row", err, zap.String("query", name))
			return nil, fmt.Errorf("%w: %w", repo.ErrMapping, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: row iteration failed", err, zap.String("query", name))
		return nil, classifyQueryErr(err)
	}

	s.warnIfSlow(name, start)
	return result, nil
}

func (s *Storage) scalar(ctx context.Context, name, query string, dst any, args ...any) error {
	start := time.Now()

	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(dst); err != nil {
		logger.Error("Repository: query failed", err,
			zap.String("query", name),
			zap.Duration("ms", time.Since(start)))
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

// classifyQueryErr maps SQLite result codes onto the repository sentinels. Errors that
// don't come from the engine at all (closed handle, failed open) mean the store is gone.
func classifyQueryErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return fmt.Errorf("%w: %w", repo.ErrStorageUnavailable, err)
	}

	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_ERROR:
		return fmt.Errorf("%w: %w", repo.ErrQuerySyntax, err)
	case sqlite3.SQLITE_MISMATCH:
		return fmt.Errorf("%w: %w", repo.ErrMapping, err)
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_NOTADB,
		sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return fmt.Errorf("%w: %w", repo.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("query: %w", err)
}
