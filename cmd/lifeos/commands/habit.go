package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/duongtruongbinh/life-os/internal/store"
)

func addHabit(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Manage habits and mark them done",
		Example: `
lifeos habit add Read --icon 📚
lifeos habit toggle read
lifeos habit rename 3f2a9c1b "Read 20 pages"
`,
	}

	var icon, colorName string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Define a new habit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return errors.New("habit name is required")
			}
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				for _, h := range s.store.State().HabitDefinitions {
					if strings.EqualFold(h.Name, name) {
						return fmt.Errorf("habit %q already exists", h.Name)
					}
				}
				id := s.store.AddHabitDefinition(name, nonEmpty(icon), nonEmpty(colorName))
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added habit %s (%s).\n", bold.Sprint(name), shortID(id))
				return nil
			})
		},
	}
	add.Flags().StringVar(&icon, "icon", "", "icon shown next to the name")
	add.Flags().StringVar(&colorName, "color", "", "display color")

	toggle := &cobra.Command{
		Use:   "toggle <habit>",
		Short: "Flip a habit's status on the selected date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				st := s.store.State()
				id, err := resolveHabit(st.HabitDefinitions, args[0])
				if err != nil {
					return err
				}
				s.store.ToggleHabit(id)
				h, _ := s.store.State().Habit(id)
				state := "not done"
				if s.store.State().DailyLog.HabitDone(id) {
					state = "done"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s (streak %d).\n",
					bold.Sprint(h.Name), state, s.date, s.store.Streak(id))
				return nil
			})
		},
	}

	var newIcon, newColor string
	rename := &cobra.Command{
		Use:   "rename <habit> <name>",
		Short: "Rename a habit or change its icon and color",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := store.HabitPatch{}
			if len(args) > 1 {
				name := strings.TrimSpace(strings.Join(args[1:], " "))
				patch.Name = &name
			}
			if cmd.Flags().Changed("icon") {
				patch.Icon = &newIcon
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &newColor
			}
			if patch.Name == nil && patch.Icon == nil && patch.Color == nil {
				return errors.New("nothing to change: give a new name, --icon or --color")
			}
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				id, err := resolveHabit(s.store.State().HabitDefinitions, args[0])
				if err != nil {
					return err
				}
				if !s.store.UpdateHabitDefinition(id, patch) {
					return fmt.Errorf("habit %s was not changed", shortID(id))
				}
				h, _ := s.store.State().Habit(id)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated habit %s.\n", bold.Sprint(h.Name))
				return nil
			})
		},
	}
	rename.Flags().StringVar(&newIcon, "icon", "", "new icon; empty clears it")
	rename.Flags().StringVar(&newColor, "color", "", "new color; empty clears it")

	rm := &cobra.Command{
		Use:     "rm <habit>",
		Aliases: []string{"remove"},
		Short:   "Delete a habit",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				st := s.store.State()
				id, err := resolveHabit(st.HabitDefinitions, args[0])
				if err != nil {
					return err
				}
				h, _ := st.Habit(id)
				s.store.RemoveHabitDefinition(id)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed habit %s.\n", bold.Sprint(h.Name))
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List habits with today's status and streaks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				st := s.store.State()
				printHabits(cmd.OutOrStdout(), st.HabitDefinitions, st.DailyLog, s.store.Streak)
				return nil
			})
		},
	}

	cmd.AddCommand(add, toggle, rename, rm, list)
	topLevel.AddCommand(cmd)
}

func nonEmpty(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
