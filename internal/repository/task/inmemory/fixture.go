package inmemory

import (
	"errors"
	"fmt"
	"io"
	"os"

	repo "taskHierarchy/internal/repository"

	"gopkg.in/yaml.v3"
)

// LoadFixture reads tables from a YAML document:
//
//	tasks:
//	  - {id: 1, name: Beta}
//	compound_tasks: [1]
//	subtasks: []
//	projects: []
func LoadFixture(path string) (*TaskStorage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture %s: %w", path, err)
	}
	defer file.Close()

	var tables Tables
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&tables); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parse %s: %w", repo.ErrInvalidFixture, path, err)
	}

	return NewTaskStorage(tables)
}
