package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// UserSettingsRepository handles per-user settings
type UserSettingsRepository struct {
	db *DB
}

// NewUserSettingsRepository creates a new settings repository
func NewUserSettingsRepository(db *DB) *UserSettingsRepository {
	return &UserSettingsRepository{db: db}
}

// Get returns the user's settings, or nil when none were saved.
func (r *UserSettingsRepository) Get(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	query := `
		SELECT user_id, pushup_goal, target_sleep_hours, target_focus_hours, created_at
		FROM user_settings
		WHERE user_id = $1`

	s := &models.UserSettings{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID,
		&s.PushupGoal,
		&s.TargetSleepHours,
		&s.TargetFocusHours,
		&s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}
	return s, nil
}

// Upsert writes the user's settings row.
func (r *UserSettingsRepository) Upsert(ctx context.Context, userID uuid.UUID, in models.SettingsInput) error {
	query := `
		INSERT INTO user_settings (user_id, pushup_goal, target_sleep_hours, target_focus_hours)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET pushup_goal = EXCLUDED.pushup_goal,
			target_sleep_hours = EXCLUDED.target_sleep_hours,
			target_focus_hours = EXCLUDED.target_focus_hours,
			updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, userID, in.PushupGoal, in.TargetSleepHours, in.TargetFocusHours); err != nil {
		return fmt.Errorf("failed to upsert user settings: %w", err)
	}
	return nil
}
