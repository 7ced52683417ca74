// Package gateway defines the remote persistence boundary the client store talks to.
// Every operation is scoped to the authenticated caller by the implementation.
package gateway

import (
	"context"
	"errors"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// ErrNotAuthenticated is returned by any operation attempted without an identity.
var ErrNotAuthenticated = errors.New("Not authenticated")

// Gateway is the set of remote operations the store depends on. Implementations
// return errors instead of panicking; a nil error means the call succeeded.
type Gateway interface {
	// GetLogForDate returns nil when no log exists for date.
	GetLogForDate(ctx context.Context, date string) (*models.DailyLog, error)
	// GetDailyLogsForRange returns logs in [start, end], ascending by date.
	GetDailyLogsForRange(ctx context.Context, start, end string) ([]models.DailyLog, error)
	// GetDailyLogsLastNDays returns logs from asOfDate-days through asOfDate. An
	// empty asOfDate lets the implementation pick today.
	GetDailyLogsLastNDays(ctx context.Context, days int, asOfDate string) ([]models.DailyLog, error)
	// SaveDailyLogsBulk upserts logs keyed by (user, date).
	SaveDailyLogsBulk(ctx context.Context, logs []models.DailyLog) error

	GetTasks(ctx context.Context) ([]models.Task, error)
	// SyncTasks deletes, then inserts, then updates. Inserted rows come back in
	// submission order.
	SyncTasks(ctx context.Context, deletedIDs []string, toInsert []models.TaskInsert, toUpdate []models.TaskUpdate) ([]models.Task, error)

	GetHabitDefinitions(ctx context.Context) ([]models.HabitDefinition, error)
	// SyncHabits has the same three-phase shape as SyncTasks.
	SyncHabits(ctx context.Context, deletedIDs []string, toInsert []models.HabitInsert, toUpdate []models.HabitUpdate) ([]models.HabitDefinition, error)

	// GetUserSettings returns nil when the user has never saved settings.
	GetUserSettings(ctx context.Context) (*models.UserSettings, error)
	UpsertUserSettings(ctx context.Context, in models.SettingsInput) error

	// FetchFullDashboardData is the aggregated read used for hydration. It may
	// return partial data together with an error.
	FetchFullDashboardData(ctx context.Context, date string) (*models.DashboardData, error)
}
