package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/duongtruongbinh/life-os/internal/reconcile"
)

// eveningHour is the hour from which a bare sleep start time is taken to
// belong to the night before the selected date.
const eveningHour = 12

// parseAt reads --at as RFC 3339 or as a HH:MM clock time. Clock times are
// placed on date, or on the day before when before is set and the time is in
// the evening.
func parseAt(raw, date string, loc *time.Location, before bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	clock, err := time.Parse("15:04", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use HH:MM or RFC 3339", raw)
	}
	day, err := reconcile.ParseDateKey(date)
	if err != nil {
		return time.Time{}, err
	}
	if before && clock.Hour() >= eveningHour {
		day = day.AddDate(0, 0, -1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

func addSleep(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:   "sleep",
		Short: "Record when you went to bed and woke up",
		Example: `
lifeos sleep start
lifeos sleep end --at 06:45
lifeos sleep start --at 23:10 --date 2026-10-17
`,
	}

	mark := func(use, short string, start bool) *cobra.Command {
		var at string
		c := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.run(cmd, withData, func(ctx context.Context, s *session) error {
					t := e.now()
					if at != "" {
						var err error
						if t, err = parseAt(at, s.date, s.loc, start); err != nil {
							return err
						}
					}
					if start {
						s.store.SetSleepStartAt(t)
					} else {
						s.store.SetSleepEndAt(t)
					}
					log := s.store.State().DailyLog
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Sleep %s at %s.\n", use, clockTime(&t, s.loc))
					if hours := reconcile.DurationHours(log.SleepStart, log.SleepEnd); hours > 0 {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Slept %.1fh (%s).\n", hours, sleepQualityLabel(reconcile.RateSleep(hours)))
					}
					return nil
				})
			},
		}
		c.Flags().StringVar(&at, "at", "", "time as HH:MM or RFC 3339 (default now)")
		return c
	}

	cmd.AddCommand(
		mark("start", "Record going to bed", true),
		mark("end", "Record waking up", false),
	)
	topLevel.AddCommand(cmd)
}

func addFocus(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Track focused work time",
	}

	start := &cobra.Command{
		Use:   "start",
		Short: "Start a focus session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				if !s.store.StartFocus() {
					return errors.New("a focus session is already running")
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Focus session started.")
				return nil
			})
		},
	}

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running session and add its minutes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				if !s.store.State().DailyLog.IsFocusing() {
					return errors.New("no focus session is running")
				}
				added := s.store.StopFocus()
				total := s.store.State().DailyLog.FocusMinutes
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %dm; %dm focused today.\n", added, total)
				return nil
			})
		},
	}

	minutes := func(use, short string, set bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <minutes>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid minutes %q", args[0])
				}
				return e.run(cmd, withData, func(ctx context.Context, s *session) error {
					if set {
						s.store.SetFocusMinutes(n)
					} else {
						s.store.AddFocusMinutes(n)
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%dm focused.\n", s.store.State().DailyLog.FocusMinutes)
					return nil
				})
			},
		}
	}

	cmd.AddCommand(start, stop,
		minutes("add", "Add minutes, or subtract with a negative number", false),
		minutes("set", "Set the day's focus minutes", true),
	)
	topLevel.AddCommand(cmd)
}

func addPushups(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:   "pushups",
		Short: "Count push-ups",
	}

	count := func(use, short string, set bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <count>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid count %q", args[0])
				}
				return e.run(cmd, withData, func(ctx context.Context, s *session) error {
					if set {
						s.store.SetPushupCount(n)
					} else {
						s.store.AddPushupCount(n)
					}
					st := s.store.State()
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d / %d push-ups.\n", st.DailyLog.PushupCount, settingsOf(st).PushupGoal)
					return nil
				})
			},
		}
	}

	cmd.AddCommand(
		count("add", "Add push-ups, or subtract with a negative number", false),
		count("set", "Set the day's push-up count", true),
	)
	topLevel.AddCommand(cmd)
}

func addNotes(topLevel *cobra.Command, e *env) {
	var clearNotes bool
	cmd := &cobra.Command{
		Use:   "notes [text]",
		Short: "Show, replace or clear the selected day's notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearNotes && len(args) > 0 {
				return errors.New("--clear takes no text")
			}
			return e.run(cmd, withData, func(ctx context.Context, s *session) error {
				switch {
				case clearNotes:
					s.store.SetNotes(nil)
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Notes cleared.")
				case len(args) > 0:
					text := strings.Join(args, " ")
					s.store.SetNotes(&text)
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Notes saved.")
				default:
					notes := s.store.State().DailyLog.Notes
					if notes == nil || *notes == "" {
						_, _ = fmt.Fprintln(cmd.OutOrStdout(), faint.Sprint("no notes"))
						return nil
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), *notes)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearNotes, "clear", false, "remove the notes")
	topLevel.AddCommand(cmd)
}
