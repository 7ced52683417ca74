package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/duongtruongbinh/life-os/internal/database"
	"github.com/duongtruongbinh/life-os/internal/queue"
	"github.com/duongtruongbinh/life-os/internal/reconcile"
	"github.com/duongtruongbinh/life-os/internal/services/tracker"
)

// NewRollupCmd creates the rollup command
func NewRollupCmd() *cobra.Command {
	var (
		userFlag string
		date     string
		inline   bool
	)

	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "Recompute habit streaks for a user",
		Long:  "Enqueue a streak_rollup job for the worker, or compute it here with --inline",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("--user must be a user id: %w", err)
			}
			if date != "" {
				if _, err := reconcile.ParseDateKey(date); err != nil {
					return fmt.Errorf("--date: %w", err)
				}
			}

			cfg, db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			ctx := cmd.Context()
			if _, err := database.NewUserRepository(db).GetByID(ctx, userID); err != nil {
				return fmt.Errorf("failed to find user %s: %w", userID, err)
			}
			out := cmd.OutOrStdout()

			if inline {
				svc := tracker.NewService(tracker.Repositories{
					Logs:     database.NewDailyLogRepository(db),
					Tasks:    database.NewTaskRepository(db),
					Habits:   database.NewHabitRepository(db),
					Settings: database.NewUserSettingsRepository(db),
					Streaks:  database.NewHabitStreakRepository(db),
				})
				streaks, err := svc.RollupStreaks(ctx, userID, date)
				if err != nil {
					return fmt.Errorf("failed to roll up streaks: %w", err)
				}
				for _, s := range streaks {
					fmt.Fprintf(out, "%-24s %3d  (as of %s)\n", s.Name, s.CurrentStreak, s.AsOf)
				}
				return nil
			}

			if !cfg.RollupsEnabled() {
				return fmt.Errorf("RABBITMQ_URL is not set; use --inline to compute without the worker")
			}
			q, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, nil)
			if err != nil {
				return err
			}
			defer func() { _ = q.Close() }()

			job := queue.NewStreakRollupJob(userID, date, 0)
			if err := q.Enqueue(ctx, job); err != nil {
				return fmt.Errorf("failed to enqueue rollup: %w", err)
			}
			fmt.Fprintf(out, "Enqueued streak_rollup job %s\n", job.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userFlag, "user", "", "User id")
	cmd.Flags().StringVar(&date, "date", "", "Date the streaks are computed for (YYYY-MM-DD, default today UTC)")
	cmd.Flags().BoolVar(&inline, "inline", false, "Compute now instead of enqueueing a job")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
