package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duongtruongbinh/life-os/internal/store"
)

func addSettings(topLevel *cobra.Command, e *env) {
	var (
		pushupGoal int
		sleepHours float64
		focusHours float64
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change daily goals",
		Example: `
lifeos settings
lifeos settings --pushup-goal 80 --focus-hours 5
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch store.SettingsPatch
			flags := cmd.Flags()
			if flags.Changed("pushup-goal") {
				if pushupGoal < 1 {
					return errors.New("pushup goal must be at least 1")
				}
				patch.PushupGoal = &pushupGoal
			}
			if flags.Changed("sleep-hours") {
				if sleepHours < 0 || sleepHours > 24 {
					return errors.New("sleep hours must be between 0 and 24")
				}
				patch.TargetSleepHours = &sleepHours
			}
			if flags.Changed("focus-hours") {
				if focusHours < 0 || focusHours > 24 {
					return errors.New("focus hours must be between 0 and 24")
				}
				patch.TargetFocusHours = &focusHours
			}

			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				if patch.PushupGoal != nil || patch.TargetSleepHours != nil || patch.TargetFocusHours != nil {
					s.store.UpdateUserSettings(patch)
				}
				settings := settingsOf(s.store.State())
				tbl := newTable()
				tbl.AddRow(bold.Sprint("Push-up goal"), settings.PushupGoal)
				tbl.AddRow(bold.Sprint("Sleep target"), fmt.Sprintf("%.1fh", settings.TargetSleepHours))
				tbl.AddRow(bold.Sprint("Focus target"), fmt.Sprintf("%.1fh", settings.TargetFocusHours))
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&pushupGoal, "pushup-goal", 0, "daily push-up goal")
	cmd.Flags().Float64Var(&sleepHours, "sleep-hours", 0, "nightly sleep target in hours")
	cmd.Flags().Float64Var(&focusHours, "focus-hours", 0, "daily focus target in hours")
	topLevel.AddCommand(cmd)
}

func addStreaks(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:   "streaks",
		Short: "Show the streaks last computed by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, offline, func(ctx context.Context, s *session) error {
				streaks, err := s.remote.Streaks(ctx)
				if err != nil {
					return fmt.Errorf("failed to fetch streaks: %w", err)
				}
				if len(streaks) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), faint.Sprint("no streaks computed yet"))
					return nil
				}
				tbl := newTable()
				tbl.AddRow(bold.Sprint("HABIT"), bold.Sprint("STREAK"), bold.Sprint("AS OF"), bold.Sprint("LOCAL"))
				for _, st := range streaks {
					tbl.AddRow(st.Name, st.CurrentStreak, st.AsOf, s.store.Streak(st.HabitID))
				}
				tbl.RightAlign(1)
				tbl.RightAlign(3)
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl)
				return nil
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addWhoami(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, offline, func(ctx context.Context, s *session) error {
				user, err := s.remote.Me(ctx)
				if err != nil {
					return err
				}
				tbl := newTable()
				tbl.AddRow(bold.Sprint("ID"), user.ID)
				tbl.AddRow(bold.Sprint("Email"), user.Email)
				if user.Name != nil {
					tbl.AddRow(bold.Sprint("Name"), *user.Name)
				}
				tbl.AddRow(bold.Sprint("Server"), s.cfg.ServerURL)
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl)
				return nil
			})
		},
	}
	topLevel.AddCommand(cmd)
}
