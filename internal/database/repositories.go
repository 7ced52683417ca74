package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// UserRepositoryInterface defines the user operations the auth layer needs.
type UserRepositoryInterface interface {
	UpsertFromClaims(ctx context.Context, claims *models.Claims) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// DailyLogRepositoryInterface defines daily log storage
type DailyLogRepositoryInterface interface {
	GetByDate(ctx context.Context, userID uuid.UUID, date string) (*models.DailyLog, error)
	GetRange(ctx context.Context, userID uuid.UUID, start, end string) ([]models.DailyLog, error)
	UpsertMany(ctx context.Context, userID uuid.UUID, logs []models.DailyLog) error
}

// TaskRepositoryInterface defines task storage
type TaskRepositoryInterface interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	Sync(ctx context.Context, userID uuid.UUID, deletedIDs []string, toInsert []models.TaskInsert, toUpdate []models.TaskUpdate) ([]models.Task, error)
}

// HabitRepositoryInterface defines habit definition storage
type HabitRepositoryInterface interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.HabitDefinition, error)
	Sync(ctx context.Context, userID uuid.UUID, deletedIDs []string, toInsert []models.HabitInsert, toUpdate []models.HabitUpdate) ([]models.HabitDefinition, error)
}

// UserSettingsRepositoryInterface defines settings storage
type UserSettingsRepositoryInterface interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
	Upsert(ctx context.Context, userID uuid.UUID, in models.SettingsInput) error
}

// HabitStreakRepositoryInterface defines streak rollup storage
type HabitStreakRepositoryInterface interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.HabitStreak, error)
	Replace(ctx context.Context, userID uuid.UUID, streaks []models.HabitStreak) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface         = (*UserRepository)(nil)
	_ DailyLogRepositoryInterface     = (*DailyLogRepository)(nil)
	_ TaskRepositoryInterface         = (*TaskRepository)(nil)
	_ HabitRepositoryInterface        = (*HabitRepository)(nil)
	_ UserSettingsRepositoryInterface = (*UserSettingsRepository)(nil)
	_ HabitStreakRepositoryInterface  = (*HabitStreakRepository)(nil)
)
