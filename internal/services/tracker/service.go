// Package tracker implements the server side of the gateway operations. Every
// method is scoped to one user; callers resolve the user from the request.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/duongtruongbinh/life-os/internal/database"
	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/queue"
	"github.com/duongtruongbinh/life-os/internal/reconcile"
	"github.com/duongtruongbinh/life-os/internal/validation"
)

const (
	// HistoryDays is how far back dashboards and rollups look.
	HistoryDays = 365
	// MaxRangeDays caps explicit range reads.
	MaxRangeDays = 400
)

// ErrInvalidInput marks caller mistakes; handlers map it to 400.
var ErrInvalidInput = errors.New("invalid input")

// Enqueuer is the part of the job queue the service needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// Repositories groups the storage the service reads and writes.
type Repositories struct {
	Logs     database.DailyLogRepositoryInterface
	Tasks    database.TaskRepositoryInterface
	Habits   database.HabitRepositoryInterface
	Settings database.UserSettingsRepositoryInterface
	Streaks  database.HabitStreakRepositoryInterface
}

// Service holds per-user tracker operations.
type Service struct {
	repos       Repositories
	jobs        Enqueuer
	rollupDelay time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithJobQueue enables streak rollup jobs after writes that can change streaks.
func WithJobQueue(q Enqueuer, delay time.Duration) Option {
	return func(s *Service) {
		s.jobs = q
		s.rollupDelay = delay
	}
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a tracker service
func NewService(repos Repositories, opts ...Option) *Service {
	s := &Service{
		repos:  repos,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func checkDate(name, key string) error {
	if _, err := reconcile.ParseDateKey(key); err != nil {
		return invalid("%s must be YYYY-MM-DD", name)
	}
	return nil
}

// Today is the fallback date key when the client does not send one.
func (s *Service) Today() string {
	return reconcile.DateKeyIn(s.now(), time.UTC)
}

// Dashboard aggregates everything a client needs to hydrate for date. Parts
// that load are returned even when others fail; the error joins every failure.
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID, date string) (*models.DashboardData, error) {
	if err := checkDate("date", date); err != nil {
		return nil, err
	}

	data := &models.DashboardData{}
	var errs []error

	if log, err := s.repos.Logs.GetByDate(ctx, userID, date); err != nil {
		errs = append(errs, err)
	} else {
		data.DailyLog = log
	}
	if tasks, err := s.repos.Tasks.List(ctx, userID); err != nil {
		errs = append(errs, err)
	} else {
		data.Tasks = tasks
	}
	if habits, err := s.repos.Habits.List(ctx, userID); err != nil {
		errs = append(errs, err)
	} else {
		data.HabitDefinitions = habits
	}
	if settings, err := s.repos.Settings.Get(ctx, userID); err != nil {
		errs = append(errs, err)
	} else {
		data.UserSettings = settings
	}
	if logs, err := s.LogsLastNDays(ctx, userID, HistoryDays, date); err != nil {
		errs = append(errs, err)
	} else {
		data.LogWindows = reconcile.SliceWindows(logs)
	}

	return data, errors.Join(errs...)
}

// LogForDate returns nil when nothing was logged on date.
func (s *Service) LogForDate(ctx context.Context, userID uuid.UUID, date string) (*models.DailyLog, error) {
	if err := checkDate("date", date); err != nil {
		return nil, err
	}
	return s.repos.Logs.GetByDate(ctx, userID, date)
}

// LogsInRange returns logs in [start, end], ascending.
func (s *Service) LogsInRange(ctx context.Context, userID uuid.UUID, start, end string) ([]models.DailyLog, error) {
	if err := checkDate("start", start); err != nil {
		return nil, err
	}
	if err := checkDate("end", end); err != nil {
		return nil, err
	}
	if start > end {
		return nil, invalid("start must not be after end")
	}
	limit, _ := reconcile.AddDays(start, MaxRangeDays)
	if end > limit {
		return nil, invalid("range must not exceed %d days", MaxRangeDays)
	}
	return s.repos.Logs.GetRange(ctx, userID, start, end)
}

// LogsLastNDays returns logs from asOf-days through asOf.
func (s *Service) LogsLastNDays(ctx context.Context, userID uuid.UUID, days int, asOf string) ([]models.DailyLog, error) {
	if days < 0 || days > MaxRangeDays {
		return nil, invalid("days must be between 0 and %d", MaxRangeDays)
	}
	if asOf == "" {
		asOf = s.Today()
	}
	start, end, err := reconcile.RangeForLastNDays(days, asOf)
	if err != nil {
		return nil, invalid("as_of must be YYYY-MM-DD")
	}
	return s.repos.Logs.GetRange(ctx, userID, start, end)
}

// SaveLogs upserts logs keyed by date. asOf is the client's local date used
// for the follow-up streak rollup.
func (s *Service) SaveLogs(ctx context.Context, userID uuid.UUID, logs []models.DailyLog, asOf string) error {
	if len(logs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(logs))
	clean := make([]models.DailyLog, 0, len(logs))
	for _, l := range logs {
		if err := checkDate("date", l.Date); err != nil {
			return err
		}
		if _, dup := seen[l.Date]; dup {
			return invalid("duplicate log for %s", l.Date)
		}
		seen[l.Date] = struct{}{}
		if l.FocusMinutes < 0 || l.PushupCount < 0 {
			return invalid("counts for %s must not be negative", l.Date)
		}

		c := l.Clone()
		c.UserID = userID.String()
		c.Notes = validation.SanitizeOptional(c.Notes)
		if c.HabitsStatus == nil {
			c.HabitsStatus = map[string]bool{}
		}
		clean = append(clean, c)
	}

	if err := s.repos.Logs.UpsertMany(ctx, userID, clean); err != nil {
		return err
	}
	s.scheduleRollup(ctx, userID, asOf)
	return nil
}

// Tasks returns the user's tasks, newest first.
func (s *Service) Tasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	return s.repos.Tasks.List(ctx, userID)
}

// SyncTasks applies deletes, inserts and updates in one transaction and returns
// the inserted rows in submission order.
func (s *Service) SyncTasks(ctx context.Context, userID uuid.UUID, req models.TaskSyncRequest) ([]models.Task, error) {
	inserts := make([]models.TaskInsert, 0, len(req.ToInsert))
	for _, t := range req.ToInsert {
		t.Title = validation.SanitizeText(t.Title)
		if t.Title == "" {
			return nil, invalid("task title must not be blank")
		}
		inserts = append(inserts, t)
	}
	updates := make([]models.TaskUpdate, 0, len(req.ToUpdate))
	for _, t := range req.ToUpdate {
		t.Title = validation.SanitizeText(t.Title)
		if t.Title == "" {
			return nil, invalid("task title must not be blank")
		}
		updates = append(updates, t)
	}
	return s.repos.Tasks.Sync(ctx, userID, req.DeletedIDs, inserts, updates)
}

// Habits returns habit definitions in creation order.
func (s *Service) Habits(ctx context.Context, userID uuid.UUID) ([]models.HabitDefinition, error) {
	return s.repos.Habits.List(ctx, userID)
}

// SyncHabits has the same shape as SyncTasks. A habit change can move streaks,
// so it schedules a rollup as of asOf.
func (s *Service) SyncHabits(ctx context.Context, userID uuid.UUID, req models.HabitSyncRequest, asOf string) ([]models.HabitDefinition, error) {
	inserts := make([]models.HabitInsert, 0, len(req.ToInsert))
	for _, h := range req.ToInsert {
		h.Name = validation.SanitizeText(h.Name)
		if h.Name == "" {
			return nil, invalid("habit name must not be blank")
		}
		h.Icon = validation.SanitizeOptional(h.Icon)
		h.Color = validation.SanitizeOptional(h.Color)
		inserts = append(inserts, h)
	}
	updates := make([]models.HabitUpdate, 0, len(req.ToUpdate))
	for _, h := range req.ToUpdate {
		h.Name = validation.SanitizeText(h.Name)
		if h.Name == "" {
			return nil, invalid("habit name must not be blank")
		}
		h.Icon = validation.SanitizeOptional(h.Icon)
		h.Color = validation.SanitizeOptional(h.Color)
		updates = append(updates, h)
	}

	inserted, err := s.repos.Habits.Sync(ctx, userID, req.DeletedIDs, inserts, updates)
	if err != nil {
		return nil, err
	}
	s.scheduleRollup(ctx, userID, asOf)
	return inserted, nil
}

// Settings returns nil when the user never saved settings.
func (s *Service) Settings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	return s.repos.Settings.Get(ctx, userID)
}

// UpsertSettings writes the user's settings.
func (s *Service) UpsertSettings(ctx context.Context, userID uuid.UUID, in models.SettingsInput) error {
	return s.repos.Settings.Upsert(ctx, userID, in)
}

// Streaks returns the last rollup written for the user.
func (s *Service) Streaks(ctx context.Context, userID uuid.UUID) ([]models.HabitStreak, error) {
	return s.repos.Streaks.List(ctx, userID)
}

// RollupStreaks recomputes every habit's current streak as of asOf and replaces
// the stored rollup.
func (s *Service) RollupStreaks(ctx context.Context, userID uuid.UUID, asOf string) ([]models.HabitStreak, error) {
	if asOf == "" {
		asOf = s.Today()
	}
	habits, err := s.repos.Habits.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	logs, err := s.LogsLastNDays(ctx, userID, HistoryDays, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}

	computedAt := s.now()
	streaks := make([]models.HabitStreak, 0, len(habits))
	for _, h := range habits {
		streaks = append(streaks, models.HabitStreak{
			HabitID:       h.ID,
			Name:          h.Name,
			CurrentStreak: reconcile.CurrentStreak(h.ID, logs, asOf),
			AsOf:          asOf,
			ComputedAt:    computedAt,
		})
	}

	if err := s.repos.Streaks.Replace(ctx, userID, streaks); err != nil {
		return nil, err
	}
	return streaks, nil
}

// scheduleRollup enqueues a delayed rollup. Queue failures never fail the write
// that triggered them.
func (s *Service) scheduleRollup(ctx context.Context, userID uuid.UUID, asOf string) {
	if s.jobs == nil {
		return
	}
	if asOf == "" {
		asOf = s.Today()
	}
	job := queue.NewStreakRollupJob(userID, asOf, s.rollupDelay)
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		s.logger.Warn("streak_rollup_enqueue_failed",
			zap.String("user_id", userID.String()),
			zap.String("as_of", asOf),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("streak_rollup_enqueued",
		zap.String("user_id", userID.String()),
		zap.String("job_id", job.ID.String()),
		zap.String("as_of", asOf),
	)
}
