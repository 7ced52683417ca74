package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/duongtruongbinh/life-os/internal/cache"
	"github.com/duongtruongbinh/life-os/internal/config"
	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/reconcile"
	"github.com/duongtruongbinh/life-os/internal/store"
)

func addPull(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Refresh from the server, keeping unsaved local edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, offline, func(ctx context.Context, s *session) error {
				s.load(ctx)
				st := s.store.State()
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d tasks, %d habits and %d days of history.\n",
					len(st.Tasks), len(st.HabitDefinitions), len(st.Last365))
				return nil
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addPush(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Save pending changes to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				st := s.store.State()
				if !st.UnsavedChanges {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Nothing to push.")
					return nil
				}
				pending := len(st.ModifiedLogs)
				if !s.push(ctx) {
					return errors.New("push failed; changes were kept locally")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d day(s) of changes.\n", pending)
				return nil
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addStatus(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"today"},
		Short:   "Show the selected day",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				printStatus(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func settingsOf(st store.State) models.UserSettings {
	if st.UserSettings == nil {
		return models.DefaultUserSettings()
	}
	return *st.UserSettings
}

func printStatus(w io.Writer, s *session) {
	st := s.store.State()
	log := st.DailyLog
	settings := settingsOf(st)

	_, _ = fmt.Fprintln(w, bold.Sprint(st.SelectedDate))

	tbl := newTable()
	sleepHours := reconcile.DurationHours(log.SleepStart, log.SleepEnd)
	sleep := fmt.Sprintf("%s → %s", clockTime(log.SleepStart, s.loc), clockTime(log.SleepEnd, s.loc))
	if sleepHours > 0 {
		sleep += fmt.Sprintf("  %.1fh %s (target %.1fh)", sleepHours, sleepQualityLabel(reconcile.RateSleep(sleepHours)), settings.TargetSleepHours)
	} else if log.IsSleeping() {
		sleep += "  " + amber.Sprint("sleeping")
	}
	tbl.AddRow(bold.Sprint("Sleep"), sleep)

	focus := fmt.Sprintf("%dm of %.1fh", log.FocusMinutes, settings.TargetFocusHours)
	if log.IsFocusing() {
		focus += "  " + amber.Sprintf("running since %s", clockTime(log.FocusStart, s.loc))
	}
	tbl.AddRow(bold.Sprint("Focus"), focus)
	tbl.AddRow(bold.Sprint("Push-ups"), fmt.Sprintf("%d / %d", log.PushupCount, settings.PushupGoal))
	if log.Notes != nil && *log.Notes != "" {
		tbl.AddRow(bold.Sprint("Notes"), *log.Notes)
	}
	_, _ = fmt.Fprintln(w, tbl)

	_, _ = fmt.Fprintln(w, "\n"+bold.Sprint("Habits"))
	printHabits(w, st.HabitDefinitions, log, s.store.Streak)

	_, _ = fmt.Fprintln(w, "\n"+bold.Sprint("Tasks"))
	printTasks(w, st.Tasks, false)

	done := reconcile.TasksCompletedOn(st.Tasks, st.SelectedDate, s.loc)
	score := reconcile.ProductivityScore(&log, st.HabitDefinitions, done, settings.PushupGoal)
	_, _ = fmt.Fprintf(w, "\n%s %d%%\n", bold.Sprint("Score"), int(score*100+0.5))
	if st.UnsavedChanges {
		_, _ = fmt.Fprintln(w, amber.Sprint("Unsaved changes. Run 'lifeos push' to save."))
	}
}

// export is the document written by the export command.
type export struct {
	ExportedAt       time.Time                `json:"exported_at"`
	SelectedDate     string                   `json:"selected_date"`
	UserSettings     models.UserSettings      `json:"user_settings"`
	HabitDefinitions []models.HabitDefinition `json:"habit_definitions"`
	Tasks            []models.Task            `json:"tasks"`
	DailyLogs        []models.DailyLog        `json:"daily_logs"`
	UnsavedChanges   bool                     `json:"unsaved_changes"`
}

func buildExport(s *session, now time.Time) export {
	st := s.store.State()
	return export{
		ExportedAt:       now,
		SelectedDate:     st.SelectedDate,
		UserSettings:     settingsOf(st),
		HabitDefinitions: st.HabitDefinitions,
		Tasks:            st.Tasks,
		DailyLogs:        s.store.MergedLogs(),
		UnsavedChanges:   st.UnsavedChanges,
	}
}

// encodeExport writes doc as JSON or YAML. YAML goes through the JSON form so
// both formats share field names.
func encodeExport(w io.Writer, doc export, format string) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	switch strings.ToLower(format) {
	case "json":
		_, err = fmt.Fprintln(w, string(raw))
		return err
	case "yaml", "yml":
		var generic map[string]any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return fmt.Errorf("failed to encode export: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("failed to encode export: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q: use json or yaml", format)
	}
}

func addExport(topLevel *cobra.Command, e *env) {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print habits, tasks, settings and history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				return encodeExport(cmd.OutOrStdout(), buildExport(s, e.now()), format)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	topLevel.AddCommand(cmd)
}

func addReset(topLevel *cobra.Command, e *env) {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard local state, including unsaved changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient(e.viper, e.opts.configFile)
			if err != nil {
				return err
			}
			c, err := cache.New(cfg.CacheDir)
			if err != nil {
				return err
			}
			st := store.New(nil, store.WithPersister(c), store.WithSavePolicy(store.NeverPolicy()))
			defer st.Close()
			if err := st.Hydrate(); err != nil && !force {
				return fmt.Errorf("%w; pass --force to discard it", err)
			}
			if !force && st.State().UnsavedChanges {
				return errors.New("local state has unsaved changes; push first or pass --force")
			}
			st.Reset()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared local state in %s.\n", c.BasePath())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "discard unsaved changes")
	topLevel.AddCommand(cmd)
}
