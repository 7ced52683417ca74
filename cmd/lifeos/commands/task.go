package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/duongtruongbinh/life-os/internal/reconcile"
)

func addTask(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Example: `
lifeos task add Renew passport --priority high --due 2026-11-01
lifeos task done 9b1c
lifeos task list --all
`,
	}

	var priorityFlag, dueFlag string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return errors.New("task title is required")
			}
			priority, err := parsePriority(priorityFlag)
			if err != nil {
				return err
			}
			due, err := parseDue(dueFlag)
			if err != nil {
				return err
			}
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				id := s.store.AddTask(title, priority)
				if due != nil {
					s.store.SetTaskDueDate(id, due)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added task %s (%s).\n", bold.Sprint(title), shortID(id))
				return nil
			})
		},
	}
	add.Flags().StringVarP(&priorityFlag, "priority", "p", "", "urgent, high or normal")
	add.Flags().StringVar(&dueFlag, "due", "", "due date as YYYY-MM-DD")

	setCompleted := func(use, short string, completed bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <task>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.run(cmd, withData, func(ctx context.Context, s *session) error {
					st := s.store.State()
					id, err := resolveTask(st.Tasks, args[0])
					if err != nil {
						return err
					}
					t, _ := st.Task(id)
					if t.IsCompleted == completed {
						state := "open"
						if completed {
							state = "completed"
						}
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %s is already %s.\n", bold.Sprint(t.Title), state)
						return nil
					}
					s.store.ToggleTaskCompletion(id, t.IsCompleted)
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", check(completed), t.Title)
					return nil
				})
			},
		}
	}
	done := setCompleted("done", "Mark a task completed", true)
	undo := setCompleted("undo", "Mark a task not completed", false)

	title := &cobra.Command{
		Use:   "title <task> <title>",
		Short: "Rename a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			newTitle := strings.Join(args[1:], " ")
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				id, err := resolveTask(s.store.State().Tasks, args[0])
				if err != nil {
					return err
				}
				if !s.store.UpdateTaskTitle(id, newTitle) {
					return errors.New("task title cannot be empty")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Renamed task %s.\n", shortID(id))
				return nil
			})
		},
	}

	priority := &cobra.Command{
		Use:   "priority <task> <urgent|high|normal>",
		Short: "Change a task's priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePriority(args[1])
			if err != nil {
				return err
			}
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				id, err := resolveTask(s.store.State().Tasks, args[0])
				if err != nil {
					return err
				}
				s.store.UpdateTaskPriority(id, p)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s.\n", shortID(id), priorityLabel(p))
				return nil
			})
		},
	}

	due := &cobra.Command{
		Use:   "due <task> [YYYY-MM-DD]",
		Short: "Set or clear a task's due date",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 2 {
				raw = args[1]
			}
			date, err := parseDue(raw)
			if err != nil {
				return err
			}
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				id, err := resolveTask(s.store.State().Tasks, args[0])
				if err != nil {
					return err
				}
				s.store.SetTaskDueDate(id, date)
				if date == nil {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared due date of task %s.\n", shortID(id))
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %s is due %s.\n", shortID(id), *date)
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:     "rm <task>",
		Aliases: []string{"remove"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				st := s.store.State()
				id, err := resolveTask(st.Tasks, args[0])
				if err != nil {
					return err
				}
				t, _ := st.Task(id)
				s.store.RemoveTask(id)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed task %s.\n", bold.Sprint(t.Title))
				return nil
			})
		},
	}

	var all bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List open tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				printTasks(cmd.OutOrStdout(), s.store.State().Tasks, all)
				return nil
			})
		},
	}
	list.Flags().BoolVarP(&all, "all", "a", false, "include completed tasks")

	cmd.AddCommand(add, done, undo, title, priority, due, rm, list)
	topLevel.AddCommand(cmd)
}

func parseDue(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if _, err := reconcile.ParseDateKey(raw); err != nil {
		return nil, err
	}
	return &raw, nil
}
