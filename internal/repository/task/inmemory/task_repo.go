package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"taskHierarchy/internal/logger"
	"taskHierarchy/internal/models/task"
	repo "taskHierarchy/internal/repository"

	"go.uber.org/zap"
)

// Tables mirrors the four relational tables. Extension tables hold only ids.
type Tables struct {
	Tasks         []task.Task `yaml:"tasks"`
	CompoundTasks []int64     `yaml:"compound_tasks"`
	Subtasks      []int64     `yaml:"subtasks"`
	Projects      []int64     `yaml:"projects"`
}

type TaskStorage struct {
	tasks    map[int64]task.Task
	compound map[int64]struct{}
	subtasks map[int64]struct{}
	projects map[int64]struct{}
	mtx      *sync.RWMutex
	closed   bool
}

// NewTaskStorage loads tables after checking the same key constraints the SQL schema
// declares: unique ids and every extension row pointing at an existing parent row.
func NewTaskStorage(tables Tables) (*TaskStorage, error) {
	s := &TaskStorage{
		tasks:    make(map[int64]task.Task, len(tables.Tasks)),
		compound: make(map[int64]struct{}, len(tables.CompoundTasks)),
		subtasks: make(map[int64]struct{}, len(tables.Subtasks)),
		projects: make(map[int64]struct{}, len(tables.Projects)),
		mtx:      &sync.RWMutex{},
	}

	for _, t := range tables.Tasks {
		if _, dup := s.tasks[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate task id %d", repo.ErrInvalidFixture, t.ID)
		}
		s.tasks[t.ID] = t
	}

	if err := fill(s.compound, tables.CompoundTasks, "compound task", func(id int64) bool {
		_, ok := s.tasks[id]
		return ok
	}); err != nil {
		return nil, err
	}

	if err := fill(s.subtasks, tables.Subtasks, "subtask", func(id int64) bool {
		_, ok := s.tasks[id]
		return ok
	}); err != nil {
		return nil, err
	}

	if err := fill(s.projects, tables.Projects, "project", func(id int64) bool {
		_, ok := s.compound[id]
		return ok
	}); err != nil {
		return nil, err
	}

	logger.Info("Repository: in-memory tables loaded",
		zap.Int("tasks", len(s.tasks)),
		zap.Int("compound_tasks", len(s.compound)),
		zap.Int("subtasks", len(s.subtasks)),
		zap.Int("projects", len(s.projects)))
	return s, nil
}

func fill(dst map[int64]struct{}, ids []int64, kind string, parentExists func(int64) bool) error {
	for _, id := range ids {
		if _, dup := dst[id]; dup {
			return fmt.Errorf("%w: duplicate %s id %d", repo.ErrInvalidFixture, kind, id)
		}
		if !parentExists(id) {
			return fmt.Errorf("%w: %s %d has no parent row", repo.ErrInvalidFixture, kind, id)
		}
		dst[id] = struct{}{}
	}
	return nil
}

// Close makes every later call fail as if the store went away.
func (s *TaskStorage) Close() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.closed = true
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.check(ctx)
}

func (s *TaskStorage) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return fmt.Errorf("%w: in-memory storage closed", repo.ErrStorageUnavailable)
	}
	return nil
}

// FindAllOrderedByName orders by byte-wise name then id, the same result SQLite's
// default BINARY collation gives.
func (s *TaskStorage) FindAllOrderedByName(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}

	res := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		t := t
		res = append(res, &t)
	}

	sort.Slice(res, func(i, j int) bool {
		if res[i].Name != res[j].Name {
			return res[i].Name < res[j].Name
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

// FindAll returns every task; callers must not rely on the order.
func (s *TaskStorage) FindAll(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}

	res := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		t := t
		res = append(res, &t)
	}
	return res, nil
}

func (s *TaskStorage) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", repo.ErrNotFound, id)
	}
	return &t, nil
}

func (s *TaskStorage) Count(ctx context.Context) (int64, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.check(ctx); err != nil {
		return 0, err
	}
	return int64(len(s.tasks)), nil
}

func (s *TaskStorage) ExistsByID(ctx context.Context, id int64) (bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.check(ctx); err != nil {
		return false, err
	}
	_, ok := s.tasks[id]
	return ok, nil
}

func (s *TaskStorage) FindAllCompoundTasks(ctx context.Context) ([]*task.CompoundTask, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}

	res := []*task.CompoundTask{}
	for _, id := range sortedIDs(s.compound) {
		t := s.tasks[id]
		res = append(res, task.NewCompoundTask(t.ID, t.Name))
	}
	return res, nil
}

func (s *TaskStorage) FindAllSubtasks(ctx context.Context) ([]*task.Subtask, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}

	res := []*task.Subtask{}
	for _, id := range sortedIDs(s.subtasks) {
		t := s.tasks[id]
		res = append(res, task.NewSubtask(t.ID, t.Name))
	}
	return res, nil
}

func (s *TaskStorage) FindAllProjects(ctx context.Context) ([]*task.Project, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}

	res := []*task.Project{}
	for _, id := range sortedIDs(s.projects) {
		t := s.tasks[id]
		res = append(res, task.NewProject(t.ID, t.Name))
	}
	return res, nil
}

func (s *TaskStorage) FindOverlappingKinds(ctx context.Context) ([]int64, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}

	ids := []int64{}
	for _, id := range sortedIDs(s.compound) {
		if _, ok := s.subtasks[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
