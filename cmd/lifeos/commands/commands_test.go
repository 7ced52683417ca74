package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/duongtruongbinh/life-os/internal/config"
	"github.com/duongtruongbinh/life-os/internal/models"
)

var testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// fakeRemote keeps server state in memory.
type fakeRemote struct {
	mu       sync.Mutex
	tasks    []models.Task
	habits   []models.HabitDefinition
	logs     map[string]models.DailyLog
	settings *models.UserSettings
	nextID   int
	failLogs bool
	streaks  []models.HabitStreak

	logFetches int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		habits: []models.HabitDefinition{{ID: "habit-read", Name: "Read"}},
		logs:   map[string]models.DailyLog{},
		settings: &models.UserSettings{
			PushupGoal:       50,
			TargetSleepHours: 8,
			TargetFocusHours: 4,
		},
	}
}

func (f *fakeRemote) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeRemote) sortedLogs() []models.DailyLog {
	out := make([]models.DailyLog, 0, len(f.logs))
	for _, l := range f.logs {
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (f *fakeRemote) GetLogForDate(_ context.Context, date string) (*models.DailyLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logFetches++
	l, ok := f.logs[date]
	if !ok {
		return nil, nil
	}
	c := l.Clone()
	return &c, nil
}

func (f *fakeRemote) GetDailyLogsForRange(_ context.Context, start, end string) ([]models.DailyLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DailyLog
	for _, l := range f.sortedLogs() {
		if l.Date >= start && l.Date <= end {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRemote) GetDailyLogsLastNDays(context.Context, int, string) ([]models.DailyLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedLogs(), nil
}

func (f *fakeRemote) SaveDailyLogsBulk(_ context.Context, logs []models.DailyLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLogs {
		return errors.New("Failed to save logs")
	}
	for _, l := range logs {
		f.logs[l.Date] = l.Clone()
	}
	return nil
}

func (f *fakeRemote) GetTasks(context.Context) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.CloneTasks(f.tasks), nil
}

func (f *fakeRemote) SyncTasks(_ context.Context, deleted []string, inserts []models.TaskInsert, updates []models.TaskUpdate) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	drop := map[string]bool{}
	for _, id := range deleted {
		drop[id] = true
	}
	kept := f.tasks[:0]
	for _, t := range f.tasks {
		if !drop[t.ID] {
			kept = append(kept, t)
		}
	}
	f.tasks = kept

	var inserted []models.Task
	for _, in := range inserts {
		t := models.Task{
			ID:          f.id("task"),
			Title:       in.Title,
			IsCompleted: in.IsCompleted,
			Priority:    in.Priority,
			DueDate:     in.DueDate,
			CreatedAt:   in.CreatedAt,
			CompletedAt: in.CompletedAt,
		}
		f.tasks = append(f.tasks, t)
		inserted = append(inserted, t)
	}
	for _, up := range updates {
		for i := range f.tasks {
			if f.tasks[i].ID == up.ID {
				f.tasks[i].Title = up.Title
				f.tasks[i].IsCompleted = up.IsCompleted
				f.tasks[i].Priority = up.Priority
				f.tasks[i].DueDate = up.DueDate
				f.tasks[i].CompletedAt = up.CompletedAt
			}
		}
	}
	return models.CloneTasks(inserted), nil
}

func (f *fakeRemote) GetHabitDefinitions(context.Context) ([]models.HabitDefinition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.CloneHabits(f.habits), nil
}

func (f *fakeRemote) SyncHabits(_ context.Context, deleted []string, inserts []models.HabitInsert, updates []models.HabitUpdate) ([]models.HabitDefinition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	drop := map[string]bool{}
	for _, id := range deleted {
		drop[id] = true
	}
	kept := f.habits[:0]
	for _, h := range f.habits {
		if !drop[h.ID] {
			kept = append(kept, h)
		}
	}
	f.habits = kept

	var inserted []models.HabitDefinition
	for _, in := range inserts {
		h := models.HabitDefinition{ID: f.id("habit"), Name: in.Name, Icon: in.Icon, Color: in.Color}
		f.habits = append(f.habits, h)
		inserted = append(inserted, h)
	}
	for _, up := range updates {
		for i := range f.habits {
			if f.habits[i].ID == up.ID {
				f.habits[i].Name = up.Name
				f.habits[i].Icon = up.Icon
				f.habits[i].Color = up.Color
			}
		}
	}
	return models.CloneHabits(inserted), nil
}

func (f *fakeRemote) GetUserSettings(context.Context) (*models.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settings == nil {
		return nil, nil
	}
	s := *f.settings
	return &s, nil
}

func (f *fakeRemote) UpsertUserSettings(_ context.Context, in models.SettingsInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = &models.UserSettings{
		PushupGoal:       in.PushupGoal,
		TargetSleepHours: in.TargetSleepHours,
		TargetFocusHours: in.TargetFocusHours,
	}
	return nil
}

func (f *fakeRemote) FetchFullDashboardData(_ context.Context, date string) (*models.DashboardData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data := &models.DashboardData{
		Tasks:            models.CloneTasks(f.tasks),
		HabitDefinitions: models.CloneHabits(f.habits),
	}
	if l, ok := f.logs[date]; ok {
		c := l.Clone()
		data.DailyLog = &c
	}
	if f.settings != nil {
		s := *f.settings
		data.UserSettings = &s
	}
	data.Last365 = f.sortedLogs()
	return data, nil
}

func (f *fakeRemote) Streaks(context.Context) ([]models.HabitStreak, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streaks, nil
}

func (f *fakeRemote) Me(context.Context) (*models.User, error) {
	return &models.User{ID: uuid.MustParse("6f1c2b1e-8c4e-4c7a-9a55-0d2b6f0f1a11"), Email: "ada@example.com"}, nil
}

// cli runs commands against one cache directory and one fake remote.
type cli struct {
	t          *testing.T
	remote     *fakeRemote
	configFile string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("server_url: http://lifeos.test\ntoken: test-token\ncache_dir: %s\n", filepath.Join(dir, "cache"))
	if err := os.WriteFile(configFile, []byte(body), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return &cli{t: t, remote: newFakeRemote(), configFile: configFile}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	e := &env{
		viper: viper.New(),
		now:   func() time.Time { return testNow },
		loc:   time.UTC,
		connect: func(*config.ClientConfig, *zap.Logger) (Remote, error) {
			return c.remote, nil
		},
	}
	root := newRoot(e)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", c.configFile}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("Expected %q to succeed, got %v (output %q)", strings.Join(args, " "), err, out)
	}
	return out
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	out := c.mustRun("task", "add", "Buy", "milk", "--priority", "high", "--due", "2026-10-20")
	if !strings.Contains(out, "Added task Buy milk") {
		t.Errorf("Expected add confirmation, got %q", out)
	}

	out = c.mustRun("task", "list")
	if !strings.Contains(out, "Buy milk") || !strings.Contains(out, "high") || !strings.Contains(out, "2026-10-20") {
		t.Errorf("Expected the new task in the list, got %q", out)
	}
	if len(c.remote.tasks) != 0 {
		t.Fatalf("Expected nothing on the server before push, got %d tasks", len(c.remote.tasks))
	}

	out = c.mustRun("push")
	if !strings.Contains(out, "Pushed") {
		t.Errorf("Expected push confirmation, got %q", out)
	}
	if len(c.remote.tasks) != 1 || c.remote.tasks[0].Title != "Buy milk" {
		t.Fatalf("Expected the task on the server, got %+v", c.remote.tasks)
	}
	serverID := c.remote.tasks[0].ID

	c.mustRun("--save", "task", "done", serverID)
	if !c.remote.tasks[0].IsCompleted {
		t.Errorf("Expected --save to push the completion")
	}

	out = c.mustRun("task", "list")
	if strings.Contains(out, "Buy milk") {
		t.Errorf("Expected completed tasks to be hidden, got %q", out)
	}
	out = c.mustRun("task", "list", "--all")
	if !strings.Contains(out, "Buy milk") {
		t.Errorf("Expected --all to include completed tasks, got %q", out)
	}

	c.mustRun("--save", "task", "rm", serverID)
	if len(c.remote.tasks) != 0 {
		t.Errorf("Expected the task to be deleted on the server, got %+v", c.remote.tasks)
	}
}

func TestHabitToggleAndStatus(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	out := c.mustRun("habit", "toggle", "read")
	if !strings.Contains(out, "Read done on 2026-10-17 (streak 1)") {
		t.Errorf("Expected toggle confirmation with streak, got %q", out)
	}

	c.mustRun("pushups", "add", "25")
	out = c.mustRun("status")
	for _, want := range []string{"2026-10-17", "Read", "25 / 50", "Score 50%", "Unsaved changes"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected status to contain %q, got %q", want, out)
		}
	}

	c.mustRun("push")
	saved, ok := c.remote.logs["2026-10-17"]
	if !ok {
		t.Fatalf("Expected the day's log on the server")
	}
	if !saved.HabitsStatus["habit-read"] || saved.PushupCount != 25 {
		t.Errorf("Expected habit done and 25 push-ups, got %+v", saved)
	}
	out = c.mustRun("status")
	if strings.Contains(out, "Unsaved changes") {
		t.Errorf("Expected no unsaved changes after push, got %q", out)
	}
}

func TestHabitAddRenameRemove(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	c.mustRun("habit", "add", "Stretch", "--icon", "🧘")
	if _, err := c.run("habit", "add", "stretch"); err == nil {
		t.Errorf("Expected a duplicate name to be rejected")
	}
	c.mustRun("habit", "rename", "stretch", "Morning", "stretch")
	c.mustRun("push")

	var found *models.HabitDefinition
	for i := range c.remote.habits {
		if c.remote.habits[i].Name == "Morning stretch" {
			found = &c.remote.habits[i]
		}
	}
	if found == nil {
		t.Fatalf("Expected the renamed habit on the server, got %+v", c.remote.habits)
	}
	if found.Icon == nil || *found.Icon != "🧘" {
		t.Errorf("Expected the icon to be kept, got %v", found.Icon)
	}

	c.mustRun("--save", "habit", "rm", "morning stretch")
	for _, h := range c.remote.habits {
		if h.Name == "Morning stretch" {
			t.Errorf("Expected the habit to be deleted on the server")
		}
	}
}

func TestFailedPushKeepsEdits(t *testing.T) {
	t.Parallel()
	c := newCLI(t)
	c.remote.failLogs = true

	c.mustRun("pushups", "add", "20")
	if _, err := c.run("push"); err == nil {
		t.Fatalf("Expected push to fail")
	}

	out := c.mustRun("pushups", "add", "5")
	if !strings.Contains(out, "25 / 50 push-ups") {
		t.Errorf("Expected the failed edit to be kept, got %q", out)
	}

	if _, err := c.run("reset"); err == nil {
		t.Errorf("Expected reset to refuse unsaved changes")
	}

	c.remote.failLogs = false
	c.mustRun("push")
	if got := c.remote.logs["2026-10-17"].PushupCount; got != 25 {
		t.Errorf("Expected 25 push-ups on the server, got %d", got)
	}
}

func TestResetClearsLocalState(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	c.mustRun("notes", "slept", "badly")
	c.mustRun("reset", "--force")

	out := c.mustRun("notes")
	if !strings.Contains(out, "no notes") {
		t.Errorf("Expected unsaved notes to be discarded, got %q", out)
	}
}

func TestLogCommands(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	c.mustRun("sleep", "start", "--at", "23:00")
	out := c.mustRun("sleep", "end", "--at", "06:30")
	if !strings.Contains(out, "Slept 7.5h (optimal)") {
		t.Errorf("Expected sleep summary, got %q", out)
	}

	out = c.mustRun("focus", "start")
	if !strings.Contains(out, "started") {
		t.Errorf("Expected focus start, got %q", out)
	}
	if _, err := c.run("focus", "start"); err == nil {
		t.Errorf("Expected a second start to fail")
	}
	out = c.mustRun("focus", "add", "30")
	if !strings.Contains(out, "30m focused") {
		t.Errorf("Expected 30 minutes, got %q", out)
	}
	out = c.mustRun("focus", "set", "--", "-5")
	if !strings.Contains(out, "0m focused") {
		t.Errorf("Expected the total to be clamped at zero, got %q", out)
	}

	c.mustRun("notes", "hello")
	out = c.mustRun("notes")
	if !strings.Contains(out, "hello") {
		t.Errorf("Expected notes, got %q", out)
	}
	c.mustRun("notes", "--clear")
	out = c.mustRun("notes")
	if !strings.Contains(out, "no notes") {
		t.Errorf("Expected notes cleared, got %q", out)
	}
}

func TestSettingsCommand(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	out := c.mustRun("--save", "settings", "--pushup-goal", "80", "--focus-hours", "5")
	if !strings.Contains(out, "80") || !strings.Contains(out, "5.0h") {
		t.Errorf("Expected updated settings, got %q", out)
	}
	if c.remote.settings.PushupGoal != 80 || c.remote.settings.TargetFocusHours != 5 {
		t.Errorf("Expected settings on the server, got %+v", c.remote.settings)
	}
	if c.remote.settings.TargetSleepHours != 8 {
		t.Errorf("Expected the sleep target to be kept, got %v", c.remote.settings.TargetSleepHours)
	}

	if _, err := c.run("settings", "--pushup-goal", "0"); err == nil {
		t.Errorf("Expected a zero goal to be rejected")
	}
}

func TestSelectedDateFlag(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	if _, err := c.run("--date", "2026-13-01", "status"); err == nil {
		t.Errorf("Expected an invalid date to be rejected")
	}

	c.mustRun("--date", "2026-10-15", "--save", "pushups", "set", "40")
	if got := c.remote.logs["2026-10-15"].PushupCount; got != 40 {
		t.Errorf("Expected 40 push-ups on 2026-10-15, got %d", got)
	}
	out := c.mustRun("pushups", "add", "1")
	if !strings.Contains(out, "1 / 50") {
		t.Errorf("Expected today to start from zero, got %q", out)
	}
}

func TestOfflineCommandsDoNotFetchDates(t *testing.T) {
	t.Parallel()
	c := newCLI(t)
	c.mustRun("status")

	c.mustRun("--date", "2020-01-01", "whoami")
	if c.remote.logFetches != 0 {
		t.Errorf("Expected an offline command not to fetch the date, got %d fetches", c.remote.logFetches)
	}

	c.mustRun("--date", "2020-01-02", "status")
	if c.remote.logFetches != 1 {
		t.Errorf("Expected status to fetch the uncached date once, got %d fetches", c.remote.logFetches)
	}
}

func TestAccountCommands(t *testing.T) {
	t.Parallel()
	c := newCLI(t)
	c.remote.streaks = []models.HabitStreak{{HabitID: "habit-read", Name: "Read", CurrentStreak: 3, AsOf: "2026-10-16"}}

	out := c.mustRun("streaks")
	if !strings.Contains(out, "Read") || !strings.Contains(out, "2026-10-16") {
		t.Errorf("Expected the server streak, got %q", out)
	}

	out = c.mustRun("whoami")
	if !strings.Contains(out, "ada@example.com") {
		t.Errorf("Expected the account email, got %q", out)
	}
}
