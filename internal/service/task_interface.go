package service

import (
	"context"

	"taskHierarchy/internal/models/task"
)

// TaskRepository is the read-only query facade over the task hierarchy.
type TaskRepository interface {
	HealthCheck(ctx context.Context) error
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
