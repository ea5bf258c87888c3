// Package cli implements the taskquery command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"taskHierarchy/internal/app"
	"taskHierarchy/internal/config"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	output     string
	repository string
	fixture    string
	sqlitePath string
	dbURL      string
}

// Execute runs the CLI against os.Args.
func Execute() error {
	return NewRootCmd(os.Stdout).Execute()
}

func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "taskquery",
		Short: "Read-only queries over the task hierarchy",
		Long: `taskquery reads tasks, compound tasks, subtasks and projects from a
PostgreSQL database, a SQLite file or an in-memory YAML fixture.

  taskquery tasks                      all tasks ordered by name
  taskquery get 42                     one task by id
  taskquery projects -o json           projects as JSON
  taskquery check                      fail if a task is both compound and subtask`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validOutput(opts.output)
		},
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (YAML)")
	flags.StringVarP(&opts.output, "output", "o", OutputTable, "output format: table, json or yaml")
	flags.StringVar(&opts.repository, "repository", "", "override repository type: postgres, sqlite or inmemory")
	flags.StringVar(&opts.fixture, "fixture", "", "YAML fixture for the inmemory repository")
	flags.StringVar(&opts.sqlitePath, "sqlite-path", "", "SQLite database file")
	flags.StringVar(&opts.dbURL, "database-url", "", "PostgreSQL connection string")

	cmd.AddCommand(newTasksCmd(opts))
	cmd.AddCommand(newGetCmd(opts))
	cmd.AddCommand(newCountCmd(opts))
	cmd.AddCommand(newExistsCmd(opts))
	cmd.AddCommand(newCompoundCmd(opts))
	cmd.AddCommand(newSubtasksCmd(opts))
	cmd.AddCommand(newProjectsCmd(opts))
	cmd.AddCommand(newSnapshotCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newAuditCmd(opts))
	cmd.AddCommand(newSchemaCmd(opts))
	cmd.AddCommand(newHealthCmd(opts))

	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}

	if o.repository != "" {
		cfg.Repository.Type = o.repository
	}
	if o.fixture != "" {
		cfg.Repository.Fixture = o.fixture
	}
	if o.sqlitePath != "" {
		cfg.SQLite.Path = o.sqlitePath
	}
	if o.dbURL != "" {
		cfg.Database.URL = o.dbURL
	}
	return cfg, cfg.Validate()
}

// withApp builds the application for one command and tears it down afterwards.
func (o *rootOptions) withApp(ctx context.Context, run func(a *app.App) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	a := app.New(cfg)
	if err := a.Init(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer a.Shutdown()

	return run(a)
}
