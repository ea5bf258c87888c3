package task

type Kind string

const KindTask Kind = "task"
const KindCompound Kind = "compound"
const KindSubtask Kind = "subtask"
const KindProject Kind = "project"

// Task is a row of tbl_task. Every other kind shares its ID.
type Task struct {
	ID   int64  `json:"id" yaml:"id" db:"id"`
	Name string `json:"name" yaml:"name" db:"name"`
}

// CompoundTask is a Task with a row in tbl_compound_task.
type CompoundTask struct {
	Task `yaml:",inline"`
}

// Subtask is a Task with a row in tbl_subtask.
type Subtask struct {
	Task `yaml:",inline"`
}

// Project is a CompoundTask with a row in tbl_project.
type Project struct {
	CompoundTask `yaml:",inline"`
}

func (t Task) Kind() Kind         { return KindTask }
func (c CompoundTask) Kind() Kind { return KindCompound }
func (s Subtask) Kind() Kind      { return KindSubtask }
func (p Project) Kind() Kind      { return KindProject }

func NewCompoundTask(id int64, name string) *CompoundTask {
	return &CompoundTask{Task: Task{ID: id, Name: name}}
}

func NewSubtask(id int64, name string) *Subtask {
	return &Subtask{Task: Task{ID: id, Name: name}}
}

func NewProject(id int64, name string) *Project {
	return &Project{CompoundTask: CompoundTask{Task: Task{ID: id, Name: name}}}
}
