package cli

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"taskHierarchy/internal/app"
	"taskHierarchy/internal/models/task"

	"github.com/spf13/cobra"
)

func newTasksCmd(opts *rootOptions) *cobra.Command {
	var unordered bool

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List every task ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				list := a.Service().ListTasks
				if unordered {
					list = a.Service().ListAllTasks
				}

				tasks, err := list(cmd.Context())
				if err != nil {
					return err
				}
				return renderTasks(cmd.OutOrStdout(), opts.output, FromTasks(tasks))
			})
		},
	}
	cmd.Flags().BoolVar(&unordered, "unordered", false, "skip sorting by name")
	return cmd
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one task by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(a *app.App) error {
				t, err := a.Service().GetTask(cmd.Context(), id)
				if err != nil {
					return err
				}
				return renderTasks(cmd.OutOrStdout(), opts.output, FromTasks([]*task.Task{t}))
			})
		},
	}
}

func newCountCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				count, err := a.Service().CountTasks(cmd.Context())
				if err != nil {
					return err
				}
				return renderValue(cmd.OutOrStdout(), opts.output, "count", count)
			})
		},
	}
}

func newExistsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <id>",
		Short: "Report whether a task with the given id exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(a *app.App) error {
				exists, err := a.Service().TaskExists(cmd.Context(), id)
				if err != nil {
					return err
				}
				return renderValue(cmd.OutOrStdout(), opts.output, "exists", exists)
			})
		},
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q: %w", arg, err)
	}
	return id, nil
}

func newCompoundCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "compound",
		Aliases: []string{"compound-tasks"},
		Short:   "List compound tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				tasks, err := a.Service().ListCompoundTasks(cmd.Context())
				if err != nil {
					return err
				}
				return renderTasks(cmd.OutOrStdout(), opts.output, FromCompoundTasks(tasks))
			})
		},
	}
}

func newSubtasksCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "subtasks",
		Short: "List subtasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				tasks, err := a.Service().ListSubtasks(cmd.Context())
				if err != nil {
					return err
				}
				return renderTasks(cmd.OutOrStdout(), opts.output, FromSubtasks(tasks))
			})
		},
	}
}

func newProjectsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				projects, err := a.Service().ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				return renderTasks(cmd.OutOrStdout(), opts.output, FromProjects(projects))
			})
		},
	}
}

func newSnapshotCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Read all four projections at once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				snap, err := a.Service().Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				return renderSnapshot(cmd.OutOrStdout(), opts.output, FromSnapshot(snap))
			})
		},
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Fail if any task is both a compound task and a subtask",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Service().ValidateHierarchy(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "hierarchy ok")
				return err
			})
		},
	}
}

func newAuditCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Run the hierarchy check periodically until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return opts.withApp(ctx, func(a *app.App) error {
				a.Worker().Start(ctx)
				return nil
			})
		},
	}
}

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the task tables in the configured SQL database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.ApplySchema(); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
				return err
			})
		},
	}
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the configured store is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Service().HealthCheck(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return err
			})
		},
	}
}
