// Package tasktest holds the behaviour every task query backend must share. Backends
// call Run from their own tests with a constructor that seeds the given tables.
package tasktest

import (
	"context"
	"fmt"
	"testing"

	"taskHierarchy/internal/models/task"
	repo "taskHierarchy/internal/repository"
	"taskHierarchy/internal/repository/task/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Facade interface {
	FindAllOrderedByName(ctx context.Context) ([]*task.Task, error)
	FindAll(ctx context.Context) ([]*task.Task, error)
	FindByID(ctx context.Context, id int64) (*task.Task, error)
	Count(ctx context.Context) (int64, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	FindAllCompoundTasks(ctx context.Context) ([]*task.CompoundTask, error)
	FindAllSubtasks(ctx context.Context) ([]*task.Subtask, error)
	FindAllProjects(ctx context.Context) ([]*task.Project, error)
	FindOverlappingKinds(ctx context.Context) ([]int64, error)
}

// Factory builds a backend holding exactly tables. The returned func makes the
// backend unreachable (closes its pool or handle).
type Factory func(t *testing.T, tables inmemory.Tables) (Facade, func())

// Run executes the shared behaviour against backends produced by newFacade.
func Run(t *testing.T, newFacade Factory) {
	t.Run("scenario", func(t *testing.T) { testScenario(t, newFacade) })
	t.Run("empty", func(t *testing.T) { testEmpty(t, newFacade) })
	t.Run("ordering", func(t *testing.T) { testOrdering(t, newFacade) })
	t.Run("joins", func(t *testing.T) { testJoins(t, newFacade) })
	t.Run("lookup", func(t *testing.T) { testLookup(t, newFacade) })
	t.Run("overlap", func(t *testing.T) { testOverlap(t, newFacade) })
	t.Run("unavailable", func(t *testing.T) { testUnavailable(t, newFacade) })
	t.Run("cancelled", func(t *testing.T) { testCancelled(t, newFacade) })
}

func testScenario(t *testing.T, newFacade Factory) {
	ctx := context.Background()
	f, _ := newFacade(t, inmemory.Tables{
		Tasks:         []task.Task{{ID: 1, Name: "Beta"}, {ID: 2, Name: "Alpha"}},
		CompoundTasks: []int64{1},
	})

	tasks, err := f.FindAllOrderedByName(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*task.Task{{ID: 2, Name: "Alpha"}, {ID: 1, Name: "Beta"}}, tasks)

	compound, err := f.FindAllCompoundTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*task.CompoundTask{task.NewCompoundTask(1, "Beta")}, compound)

	subtasks, err := f.FindAllSubtasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, subtasks)

	projects, err := f.FindAllProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func testEmpty(t *testing.T, newFacade Factory) {
	ctx := context.Background()
	f, _ := newFacade(t, inmemory.Tables{})

	tasks, err := f.FindAllOrderedByName(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)

	compound, err := f.FindAllCompoundTasks(ctx)
	require.NoError(t, err)
	assert.NotNil(t, compound)
	assert.Empty(t, compound)

	subtasks, err := f.FindAllSubtasks(ctx)
	require.NoError(t, err)
	assert.NotNil(t, subtasks)
	assert.Empty(t, subtasks)

	projects, err := f.FindAllProjects(ctx)
	require.NoError(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)

	overlap, err := f.FindOverlappingKinds(ctx)
	require.NoError(t, err)
	assert.Empty(t, overlap)
}

// lowercase ASCII only: byte order and the usual server collations agree on it
var orderingNames = []string{"delta", "alpha", "charlie", "bravo", "alpha", "echo", "bravo", "alpha"}

func testOrdering(t *testing.T, newFacade Factory) {
	ctx := context.Background()

	tables := inmemory.Tables{}
	for i, name := range orderingNames {
		tables.Tasks = append(tables.Tasks, task.Task{ID: int64(len(orderingNames) - i), Name: name})
	}
	f, _ := newFacade(t, tables)

	tasks, err := f.FindAllOrderedByName(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, len(orderingNames))

	for i := 1; i < len(tasks); i++ {
		prev, cur := tasks[i-1], tasks[i]
		assert.LessOrEqual(t, prev.Name, cur.Name, "names must be non-decreasing at %d", i)
		if prev.Name == cur.Name {
			assert.Less(t, prev.ID, cur.ID, "ties ordered by id at %d", i)
		}
	}

	again, err := f.FindAllOrderedByName(ctx)
	require.NoError(t, err)
	assert.Equal(t, tasks, again)
}

func testJoins(t *testing.T, newFacade Factory) {
	ctx := context.Background()

	tables := inmemory.Tables{
		Tasks: []task.Task{
			{ID: 1, Name: "roadmap"},
			{ID: 2, Name: "release"},
			{ID: 3, Name: "write docs"},
			{ID: 4, Name: "fix bug"},
			{ID: 5, Name: "standalone"},
			{ID: 6, Name: "migration"},
		},
		CompoundTasks: []int64{1, 2, 6},
		Subtasks:      []int64{3, 4},
		Projects:      []int64{1, 6},
	}
	f, _ := newFacade(t, tables)

	compound, err := f.FindAllCompoundTasks(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 6}, compoundIDs(compound))
	for _, c := range compound {
		assert.Equal(t, task.KindCompound, c.Kind())
		assert.NotEmpty(t, c.Name, "base columns are carried through the join")
	}

	subtasks, err := f.FindAllSubtasks(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{3, 4}, subtaskIDs(subtasks))

	projects, err := f.FindAllProjects(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 6}, projectIDs(projects))
	for _, p := range projects {
		assert.Equal(t, task.KindProject, p.Kind())
	}

	all, err := f.FindAllOrderedByName(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(tables.Tasks), "the base query never joins")
}

func testLookup(t *testing.T, newFacade Factory) {
	ctx := context.Background()

	tables := inmemory.Tables{
		Tasks:         []task.Task{{ID: 10, Name: "plan"}, {ID: 20, Name: "build"}, {ID: 30, Name: "ship"}},
		CompoundTasks: []int64{10},
		Subtasks:      []int64{20},
	}
	f, _ := newFacade(t, tables)

	found, err := f.FindByID(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, &task.Task{ID: 20, Name: "build"}, found)

	missing, err := f.FindByID(ctx, 99)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.Nil(t, missing)

	count, err := f.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(tables.Tasks)), count, "extension rows are not counted twice")

	exists, err := f.ExistsByID(ctx, 30)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = f.ExistsByID(ctx, 99)
	require.NoError(t, err)
	assert.False(t, exists)

	all, err := f.FindAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []*task.Task{{ID: 10, Name: "plan"}, {ID: 20, Name: "build"}, {ID: 30, Name: "ship"}}, all)

	empty, _ := newFacade(t, inmemory.Tables{})
	count, err = empty.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	none, err := empty.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func testOverlap(t *testing.T, newFacade Factory) {
	ctx := context.Background()

	f, _ := newFacade(t, inmemory.Tables{
		Tasks:         []task.Task{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}},
		CompoundTasks: []int64{1, 2},
		Subtasks:      []int64{2, 3},
	})

	ids, err := f.FindOverlappingKinds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func testUnavailable(t *testing.T, newFacade Factory) {
	ctx := context.Background()

	f, closeStore := newFacade(t, inmemory.Tables{
		Tasks:         []task.Task{{ID: 1, Name: "a"}},
		CompoundTasks: []int64{1},
		Projects:      []int64{1},
	})
	closeStore()

	tasks, err := f.FindAllOrderedByName(ctx)
	assert.ErrorIs(t, err, repo.ErrStorageUnavailable)
	assert.Nil(t, tasks)

	compound, err := f.FindAllCompoundTasks(ctx)
	assert.ErrorIs(t, err, repo.ErrStorageUnavailable)
	assert.Nil(t, compound)

	subtasks, err := f.FindAllSubtasks(ctx)
	assert.ErrorIs(t, err, repo.ErrStorageUnavailable)
	assert.Nil(t, subtasks)

	projects, err := f.FindAllProjects(ctx)
	assert.ErrorIs(t, err, repo.ErrStorageUnavailable)
	assert.Nil(t, projects)

	found, err := f.FindByID(ctx, 1)
	assert.ErrorIs(t, err, repo.ErrStorageUnavailable)
	assert.Nil(t, found)

	_, err = f.Count(ctx)
	assert.ErrorIs(t, err, repo.ErrStorageUnavailable)

	_, err = f.ExistsByID(ctx, 1)
	assert.ErrorIs(t, err, repo.ErrStorageUnavailable)
}

func testCancelled(t *testing.T, newFacade Factory) {
	f, _ := newFacade(t, inmemory.Tables{Tasks: []task.Task{{ID: 1, Name: "a"}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks, err := f.FindAllOrderedByName(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, tasks)
}

// Exec runs one statement against a SQL backend under test.
type Exec func(ctx context.Context, query string, args ...any) error

// SeedSQL inserts tables through exec. placeholder renders the n-th (1-based)
// bind parameter for the target dialect.
func SeedSQL(ctx context.Context, exec Exec, placeholder func(n int) string, tables inmemory.Tables) error {
	insertTask := fmt.Sprintf("INSERT INTO tbl_task (id, name) VALUES (%s, %s)", placeholder(1), placeholder(2))
	for _, t := range tables.Tasks {
		if err := exec(ctx, insertTask, t.ID, t.Name); err != nil {
			return fmt.Errorf("seed task %d: %w", t.ID, err)
		}
	}

	extensions := []struct {
		table string
		ids   []int64
	}{
		{"tbl_compound_task", tables.CompoundTasks},
		{"tbl_subtask", tables.Subtasks},
		{"tbl_project", tables.Projects},
	}
	for _, ext := range extensions {
		insert := fmt.Sprintf("INSERT INTO %s (id) VALUES (%s)", ext.table, placeholder(1))
		for _, id := range ext.ids {
			if err := exec(ctx, insert, id); err != nil {
				return fmt.Errorf("seed %s %d: %w", ext.table, id, err)
			}
		}
	}
	return nil
}

func compoundIDs(in []*task.CompoundTask) []int64 {
	ids := make([]int64, 0, len(in))
	for _, c := range in {
		ids = append(ids, c.ID)
	}
	return ids
}

func subtaskIDs(in []*task.Subtask) []int64 {
	ids := make([]int64, 0, len(in))
	for _, s := range in {
		ids = append(ids, s.ID)
	}
	return ids
}

func projectIDs(in []*task.Project) []int64 {
	ids := make([]int64, 0, len(in))
	for _, p := range in {
		ids = append(ids, p.ID)
	}
	return ids
}
