package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// HabitStreakRepository stores the streak rollup written by the worker.
type HabitStreakRepository struct {
	db *DB
}

// NewHabitStreakRepository creates a new streak repository
func NewHabitStreakRepository(db *DB) *HabitStreakRepository {
	return &HabitStreakRepository{db: db}
}

// List returns the user's streaks, longest first.
func (r *HabitStreakRepository) List(ctx context.Context, userID uuid.UUID) ([]models.HabitStreak, error) {
	query := `
		SELECT habit_id, name, current_streak, to_char(as_of, 'YYYY-MM-DD'), computed_at
		FROM habit_streaks
		WHERE user_id = $1
		ORDER BY current_streak DESC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query habit streaks: %w", err)
	}
	defer rows.Close()

	streaks := make([]models.HabitStreak, 0)
	for rows.Next() {
		var s models.HabitStreak
		if err := rows.Scan(&s.HabitID, &s.Name, &s.CurrentStreak, &s.AsOf, &s.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan habit streak: %w", err)
		}
		streaks = append(streaks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habit streaks: %w", err)
	}
	return streaks, nil
}

// Replace swaps the user's streak rows for streaks in one transaction.
func (r *HabitStreakRepository) Replace(ctx context.Context, userID uuid.UUID, streaks []models.HabitStreak) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM habit_streaks WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to clear habit streaks: %w", err)
		}
		for _, s := range streaks {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO habit_streaks (user_id, habit_id, name, current_streak, as_of, computed_at)
				VALUES ($1, $2, $3, $4, $5::date, $6)`,
				userID, s.HabitID, s.Name, s.CurrentStreak, s.AsOf, s.ComputedAt,
			); err != nil {
				return fmt.Errorf("failed to insert habit streak %s: %w", s.HabitID, err)
			}
		}
		return nil
	})
}
