package tracker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/queue"
)

var (
	fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	userID   = uuid.MustParse("5b7a2d4e-8c1f-4e3a-9f6b-1d2c3e4f5a6b")
)

type fakeLogs struct {
	mu      sync.Mutex
	byDate  map[string]models.DailyLog
	err     error
	upserts [][]models.DailyLog
}

func (f *fakeLogs) GetByDate(_ context.Context, _ uuid.UUID, date string) (*models.DailyLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	l, ok := f.byDate[date]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (f *fakeLogs) GetRange(_ context.Context, _ uuid.UUID, start, end string) ([]models.DailyLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.DailyLog, 0)
	for date, l := range f.byDate {
		if date >= start && date <= end {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (f *fakeLogs) UpsertMany(_ context.Context, _ uuid.UUID, logs []models.DailyLog) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, logs)
	if f.byDate == nil {
		f.byDate = map[string]models.DailyLog{}
	}
	for _, l := range logs {
		f.byDate[l.Date] = l
	}
	return nil
}

type fakeTasks struct {
	tasks []models.Task
	err   error
	calls int
	got   models.TaskSyncRequest
}

func (f *fakeTasks) List(context.Context, uuid.UUID) ([]models.Task, error) {
	return f.tasks, f.err
}

func (f *fakeTasks) Sync(_ context.Context, _ uuid.UUID, deleted []string, ins []models.TaskInsert, upd []models.TaskUpdate) ([]models.Task, error) {
	f.calls++
	f.got = models.TaskSyncRequest{DeletedIDs: deleted, ToInsert: ins, ToUpdate: upd}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Task, 0, len(ins))
	for _, t := range ins {
		out = append(out, models.Task{ID: uuid.NewString(), Title: t.Title})
	}
	return out, nil
}

type fakeHabits struct {
	habits []models.HabitDefinition
	err    error
	got    models.HabitSyncRequest
}

func (f *fakeHabits) List(context.Context, uuid.UUID) ([]models.HabitDefinition, error) {
	return f.habits, f.err
}

func (f *fakeHabits) Sync(_ context.Context, _ uuid.UUID, deleted []string, ins []models.HabitInsert, upd []models.HabitUpdate) ([]models.HabitDefinition, error) {
	f.got = models.HabitSyncRequest{DeletedIDs: deleted, ToInsert: ins, ToUpdate: upd}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.HabitDefinition, 0, len(ins))
	for _, h := range ins {
		out = append(out, models.HabitDefinition{ID: uuid.NewString(), Name: h.Name, Icon: h.Icon})
	}
	return out, nil
}

type fakeSettings struct {
	settings *models.UserSettings
	err      error
	upserted *models.SettingsInput
}

func (f *fakeSettings) Get(context.Context, uuid.UUID) (*models.UserSettings, error) {
	return f.settings, f.err
}

func (f *fakeSettings) Upsert(_ context.Context, _ uuid.UUID, in models.SettingsInput) error {
	f.upserted = &in
	return f.err
}

type fakeStreaks struct {
	rows []models.HabitStreak
	err  error
}

func (f *fakeStreaks) List(context.Context, uuid.UUID) ([]models.HabitStreak, error) {
	return f.rows, f.err
}

func (f *fakeStreaks) Replace(_ context.Context, _ uuid.UUID, rows []models.HabitStreak) error {
	if f.err != nil {
		return f.err
	}
	f.rows = rows
	return nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []*queue.Job
	err  error
}

func (f *fakeQueue) Enqueue(_ context.Context, job *queue.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type fixture struct {
	logs     *fakeLogs
	tasks    *fakeTasks
	habits   *fakeHabits
	settings *fakeSettings
	streaks  *fakeStreaks
	queue    *fakeQueue
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		logs:     &fakeLogs{byDate: map[string]models.DailyLog{}},
		tasks:    &fakeTasks{},
		habits:   &fakeHabits{},
		settings: &fakeSettings{},
		streaks:  &fakeStreaks{},
		queue:    &fakeQueue{},
	}
	f.svc = NewService(Repositories{
		Logs:     f.logs,
		Tasks:    f.tasks,
		Habits:   f.habits,
		Settings: f.settings,
		Streaks:  f.streaks,
	},
		WithJobQueue(f.queue, 5*time.Second),
		WithClock(func() time.Time { return fixedNow }),
	)
	return f
}

func strPtr(s string) *string { return &s }

func TestService_Dashboard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		prepare  func(f *fixture)
		date     string
		validate func(*testing.T, *models.DashboardData, error)
	}{
		{
			name: "aggregates every part",
			date: "2026-03-10",
			prepare: func(f *fixture) {
				f.logs.byDate["2026-03-10"] = models.DailyLog{Date: "2026-03-10", PushupCount: 20}
				f.logs.byDate["2026-03-09"] = models.DailyLog{Date: "2026-03-09"}
				f.logs.byDate["2025-01-01"] = models.DailyLog{Date: "2025-01-01"}
				f.tasks.tasks = []models.Task{{ID: "t1"}}
				f.habits.habits = []models.HabitDefinition{{ID: "h1", Name: "Run"}}
				f.settings.settings = &models.UserSettings{PushupGoal: 70}
			},
			validate: func(t *testing.T, d *models.DashboardData, err error) {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				if d.DailyLog == nil || d.DailyLog.PushupCount != 20 {
					t.Errorf("Expected today's log, got %+v", d.DailyLog)
				}
				if len(d.Tasks) != 1 || len(d.HabitDefinitions) != 1 || d.UserSettings.PushupGoal != 70 {
					t.Errorf("Expected tasks, habits and settings, got %+v", d)
				}
				if len(d.Last365) != 2 || d.Last365[0].Date != "2026-03-09" {
					t.Errorf("Expected the year window to exclude old logs, got %+v", d.Last365)
				}
				if len(d.Last7) != 2 {
					t.Errorf("Expected 2 logs in the week window, got %d", len(d.Last7))
				}
			},
		},
		{
			name: "partial failure keeps loaded parts",
			date: "2026-03-10",
			prepare: func(f *fixture) {
				f.tasks.err = errors.New("tasks down")
				f.habits.habits = []models.HabitDefinition{{ID: "h1", Name: "Run"}}
			},
			validate: func(t *testing.T, d *models.DashboardData, err error) {
				if err == nil || err.Error() != "tasks down" {
					t.Errorf("Expected tasks down, got %v", err)
				}
				if d == nil || len(d.HabitDefinitions) != 1 {
					t.Errorf("Expected habits to still load, got %+v", d)
				}
			},
		},
		{
			name: "bad date",
			date: "yesterday",
			validate: func(t *testing.T, d *models.DashboardData, err error) {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("Expected ErrInvalidInput, got %v", err)
				}
				if d != nil {
					t.Error("Expected no data")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			if tt.prepare != nil {
				tt.prepare(f)
			}
			d, err := f.svc.Dashboard(context.Background(), userID, tt.date)
			tt.validate(t, d, err)
		})
	}
}

func TestService_LogsInRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		start, end string
		wantErr    bool
		wantCount  int
	}{
		{name: "inclusive range", start: "2026-03-01", end: "2026-03-05", wantCount: 2},
		{name: "start after end", start: "2026-03-05", end: "2026-03-01", wantErr: true},
		{name: "bad start", start: "03/01/2026", end: "2026-03-05", wantErr: true},
		{name: "too long", start: "2024-01-01", end: "2026-03-05", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			f.logs.byDate["2026-03-01"] = models.DailyLog{Date: "2026-03-01"}
			f.logs.byDate["2026-03-05"] = models.DailyLog{Date: "2026-03-05"}
			f.logs.byDate["2026-03-06"] = models.DailyLog{Date: "2026-03-06"}

			logs, err := f.svc.LogsInRange(context.Background(), userID, tt.start, tt.end)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("Expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(logs) != tt.wantCount {
				t.Errorf("Expected %d logs, got %d", tt.wantCount, len(logs))
			}
		})
	}
}

func TestService_LogsLastNDays(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.logs.byDate["2026-03-03"] = models.DailyLog{Date: "2026-03-03"}
	f.logs.byDate["2026-03-02"] = models.DailyLog{Date: "2026-03-02"}
	f.logs.byDate["2026-03-11"] = models.DailyLog{Date: "2026-03-11"}

	logs, err := f.svc.LogsLastNDays(context.Background(), userID, 7, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(logs) != 1 || logs[0].Date != "2026-03-03" {
		t.Errorf("Expected only 2026-03-03 within 7 days of the clock date, got %+v", logs)
	}

	if _, err := f.svc.LogsLastNDays(context.Background(), userID, -1, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for negative days, got %v", err)
	}
}

func TestService_SaveLogs(t *testing.T) {
	t.Parallel()

	t.Run("upserts sanitized logs and schedules a rollup", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		err := f.svc.SaveLogs(context.Background(), userID, []models.DailyLog{
			{Date: "2026-03-09", Notes: strPtr("  tired\x07 ")},
			{Date: "2026-03-10", PushupCount: 5, Notes: strPtr("   ")},
		}, "2026-03-10")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		saved := f.logs.upserts[0]
		if saved[0].Notes == nil || *saved[0].Notes != "tired" {
			t.Errorf("Expected sanitized notes, got %v", saved[0].Notes)
		}
		if saved[1].Notes != nil {
			t.Error("Expected blank notes to be cleared")
		}
		if saved[1].HabitsStatus == nil {
			t.Error("Expected an empty status map")
		}
		if saved[0].UserID != userID.String() {
			t.Errorf("Expected user id to be stamped, got %q", saved[0].UserID)
		}

		if len(f.queue.jobs) != 1 {
			t.Fatalf("Expected one rollup job, got %d", len(f.queue.jobs))
		}
		job := f.queue.jobs[0]
		if job.Type != queue.JobTypeStreakRollup || job.AsOf != "2026-03-10" || job.UserID != userID {
			t.Errorf("Expected a rollup for the user as of 2026-03-10, got %+v", job)
		}
		if job.NotBefore == nil {
			t.Error("Expected the rollup to be delayed")
		}
	})

	t.Run("rejects invalid batches", func(t *testing.T) {
		t.Parallel()

		batches := [][]models.DailyLog{
			{{Date: "bad"}},
			{{Date: "2026-03-09"}, {Date: "2026-03-09"}},
			{{Date: "2026-03-09", PushupCount: -1}},
		}
		for _, logs := range batches {
			f := newFixture()
			if err := f.svc.SaveLogs(context.Background(), userID, logs, ""); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput for %+v, got %v", logs, err)
			}
			if len(f.logs.upserts) != 0 || len(f.queue.jobs) != 0 {
				t.Error("Expected nothing to be written or enqueued")
			}
		}
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		if err := f.svc.SaveLogs(context.Background(), userID, nil, ""); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
		if len(f.queue.jobs) != 0 {
			t.Error("Expected no rollup for an empty batch")
		}
	})

	t.Run("queue failure does not fail the save", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.queue.err = errors.New("broker down")
		if err := f.svc.SaveLogs(context.Background(), userID, []models.DailyLog{{Date: "2026-03-10"}}, ""); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})
}

func TestService_SyncTasks(t *testing.T) {
	t.Parallel()

	f := newFixture()
	inserted, err := f.svc.SyncTasks(context.Background(), userID, models.TaskSyncRequest{
		DeletedIDs: []string{uuid.NewString()},
		ToInsert:   []models.TaskInsert{{Title: "  first "}, {Title: "second"}},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(inserted) != 2 || inserted[0].Title != "first" || inserted[1].Title != "second" {
		t.Errorf("Expected inserted rows in order, got %+v", inserted)
	}
	if len(f.tasks.got.DeletedIDs) != 1 {
		t.Errorf("Expected deletes to be forwarded, got %v", f.tasks.got.DeletedIDs)
	}

	_, err = f.svc.SyncTasks(context.Background(), userID, models.TaskSyncRequest{
		ToUpdate: []models.TaskUpdate{{ID: uuid.NewString(), Title: " \t "}},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a blank title, got %v", err)
	}
	if f.tasks.calls != 1 {
		t.Errorf("Expected the invalid sync not to reach storage, got %d calls", f.tasks.calls)
	}
}

func TestService_SyncHabits(t *testing.T) {
	t.Parallel()

	f := newFixture()
	inserted, err := f.svc.SyncHabits(context.Background(), userID, models.HabitSyncRequest{
		ToInsert: []models.HabitInsert{{Name: " Read ", Icon: strPtr(" Book "), Color: strPtr("")}},
	}, "2026-03-10")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(inserted) != 1 || inserted[0].Name != "Read" {
		t.Errorf("Expected the sanitized habit back, got %+v", inserted)
	}
	got := f.habits.got.ToInsert[0]
	if got.Icon == nil || *got.Icon != "Book" || got.Color != nil {
		t.Errorf("Expected trimmed icon and cleared color, got %+v", got)
	}
	if len(f.queue.jobs) != 1 {
		t.Errorf("Expected a rollup after a habit sync, got %d", len(f.queue.jobs))
	}

	f.habits.err = errors.New("conflict")
	if _, err := f.svc.SyncHabits(context.Background(), userID, models.HabitSyncRequest{}, ""); err == nil {
		t.Error("Expected the storage error")
	}
	if len(f.queue.jobs) != 1 {
		t.Error("Expected no rollup after a failed sync")
	}
}

func TestService_RollupStreaks(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.habits.habits = []models.HabitDefinition{{ID: "h-run", Name: "Run"}, {ID: "h-read", Name: "Read"}}
	f.logs.byDate["2026-03-08"] = models.DailyLog{Date: "2026-03-08", HabitsStatus: map[string]bool{"h-run": true}}
	f.logs.byDate["2026-03-09"] = models.DailyLog{Date: "2026-03-09", HabitsStatus: map[string]bool{"h-run": true, "h-read": true}}

	streaks, err := f.svc.RollupStreaks(context.Background(), userID, "2026-03-10")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := map[string]int{"h-run": 2, "h-read": 1}
	for _, s := range streaks {
		if s.CurrentStreak != want[s.HabitID] {
			t.Errorf("Expected %s streak %d, got %d", s.HabitID, want[s.HabitID], s.CurrentStreak)
		}
		if s.AsOf != "2026-03-10" || !s.ComputedAt.Equal(fixedNow) {
			t.Errorf("Expected as_of and computed_at to be stamped, got %+v", s)
		}
	}
	if len(f.streaks.rows) != 2 {
		t.Errorf("Expected the rollup to be stored, got %d rows", len(f.streaks.rows))
	}

	f.streaks.err = errors.New("write failed")
	if _, err := f.svc.RollupStreaks(context.Background(), userID, ""); err == nil {
		t.Error("Expected the replace error")
	}
}

func TestService_NoQueueConfigured(t *testing.T) {
	t.Parallel()

	logs := &fakeLogs{byDate: map[string]models.DailyLog{}}
	svc := NewService(Repositories{Logs: logs})
	if err := svc.SaveLogs(context.Background(), userID, []models.DailyLog{{Date: "2026-03-10"}}, ""); err != nil {
		t.Errorf("Expected no error without a queue, got %v", err)
	}
}
