package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"taskHierarchy/internal/models/task"
	"taskHierarchy/internal/service"

	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

type TaskView struct {
	ID   int64     `json:"id" yaml:"id"`
	Name string    `json:"name" yaml:"name"`
	Kind task.Kind `json:"kind" yaml:"kind"`
}

type SnapshotView struct {
	Tasks         []TaskView `json:"tasks" yaml:"tasks"`
	CompoundTasks []TaskView `json:"compound_tasks" yaml:"compound_tasks"`
	Subtasks      []TaskView `json:"subtasks" yaml:"subtasks"`
	Projects      []TaskView `json:"projects" yaml:"projects"`
}

type kinded interface {
	Kind() task.Kind
}

func toView(id int64, name string, k kinded) TaskView {
	return TaskView{ID: id, Name: name, Kind: k.Kind()}
}

func FromTasks(tasks []*task.Task) []TaskView {
	result := make([]TaskView, len(tasks))
	for i, t := range tasks {
		result[i] = toView(t.ID, t.Name, t)
	}
	return result
}

func FromCompoundTasks(tasks []*task.CompoundTask) []TaskView {
	result := make([]TaskView, len(tasks))
	for i, t := range tasks {
		result[i] = toView(t.ID, t.Name, t)
	}
	return result
}

func FromSubtasks(tasks []*task.Subtask) []TaskView {
	result := make([]TaskView, len(tasks))
	for i, t := range tasks {
		result[i] = toView(t.ID, t.Name, t)
	}
	return result
}

func FromProjects(projects []*task.Project) []TaskView {
	result := make([]TaskView, len(projects))
	for i, p := range projects {
		result[i] = toView(p.ID, p.Name, p)
	}
	return result
}

func FromSnapshot(s *service.Snapshot) SnapshotView {
	return SnapshotView{
		Tasks:         FromTasks(s.Tasks),
		CompoundTasks: FromCompoundTasks(s.CompoundTasks),
		Subtasks:      FromSubtasks(s.Subtasks),
		Projects:      FromProjects(s.Projects),
	}
}

func validOutput(format string) error {
	switch format {
	case OutputTable, OutputJSON, OutputYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

func renderTasks(w io.Writer, format string, views []TaskView) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, views)
	case OutputYAML:
		return writeYAML(w, views)
	}

	t := table.New().Headers("ID", "NAME", "KIND")
	for _, v := range views {
		t.Row(strconv.FormatInt(v.ID, 10), v.Name, string(v.Kind))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func renderSnapshot(w io.Writer, format string, view SnapshotView) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, view)
	case OutputYAML:
		return writeYAML(w, view)
	}

	sections := []struct {
		title string
		rows  []TaskView
	}{
		{"Tasks", view.Tasks},
		{"Compound tasks", view.CompoundTasks},
		{"Subtasks", view.Subtasks},
		{"Projects", view.Projects},
	}
	for _, section := range sections {
		if _, err := fmt.Fprintf(w, "%s (%d)\n", section.title, len(section.rows)); err != nil {
			return err
		}
		if err := renderTasks(w, OutputTable, section.rows); err != nil {
			return err
		}
	}
	return nil
}

// renderValue prints a single scalar, keyed by name in json and yaml.
func renderValue(w io.Writer, format, name string, value any) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, map[string]any{name: value})
	case OutputYAML:
		return writeYAML(w, map[string]any{name: value})
	}
	_, err := fmt.Fprintln(w, value)
	return err
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
