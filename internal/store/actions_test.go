package store

import (
	"testing"
	"time"

	"github.com/duongtruongbinh/life-os/internal/models"
)

func TestActions_DateScopedEditsWriteLedger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		act      func(s *Store)
		validate func(*testing.T, models.DailyLog)
	}{
		{
			name: "toggle habit",
			act:  func(s *Store) { s.ToggleHabit("h1") },
			validate: func(t *testing.T, l models.DailyLog) {
				if !l.HabitsStatus["h1"] {
					t.Error("Expected h1 to be done")
				}
			},
		},
		{
			name: "toggle habit twice",
			act: func(s *Store) {
				s.ToggleHabit("h1")
				s.ToggleHabit("h1")
			},
			validate: func(t *testing.T, l models.DailyLog) {
				if l.HabitsStatus["h1"] {
					t.Error("Expected h1 to be undone")
				}
			},
		},
		{
			name: "pushups never go negative",
			act: func(s *Store) {
				s.AddPushupCount(10)
				s.AddPushupCount(-25)
			},
			validate: func(t *testing.T, l models.DailyLog) {
				if l.PushupCount != 0 {
					t.Errorf("Expected 0 pushups, got %d", l.PushupCount)
				}
			},
		},
		{
			name: "set pushups",
			act:  func(s *Store) { s.SetPushupCount(42) },
			validate: func(t *testing.T, l models.DailyLog) {
				if l.PushupCount != 42 {
					t.Errorf("Expected 42 pushups, got %d", l.PushupCount)
				}
			},
		},
		{
			name: "sleep start and end",
			act: func(s *Store) {
				s.SetSleepStartAt(fixedNow.Add(-8 * time.Hour))
				s.SetSleepEnd()
			},
			validate: func(t *testing.T, l models.DailyLog) {
				if l.SleepStart == nil || l.SleepEnd == nil {
					t.Fatal("Expected sleep start and end to be set")
				}
				if got := l.SleepEnd.Sub(*l.SleepStart); got != 8*time.Hour {
					t.Errorf("Expected 8h of sleep, got %s", got)
				}
			},
		},
		{
			name: "notes set and cleared",
			act: func(s *Store) {
				s.SetNotes(strPtr("tired"))
				s.SetNotes(nil)
			},
			validate: func(t *testing.T, l models.DailyLog) {
				if l.Notes != nil {
					t.Errorf("Expected notes to be cleared, got %q", *l.Notes)
				}
			},
		},
		{
			name: "focus minutes clamp at zero",
			act: func(s *Store) {
				s.AddFocusMinutes(30)
				s.AddFocusMinutes(-45)
			},
			validate: func(t *testing.T, l models.DailyLog) {
				if l.FocusMinutes != 0 {
					t.Errorf("Expected 0 focus minutes, got %d", l.FocusMinutes)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestStore(&fakeGateway{})
			tt.act(s)

			st := s.State()
			if st.SelectedDate != "2026-03-10" {
				t.Errorf("Expected selected date to default to today, got %s", st.SelectedDate)
			}
			if !st.UnsavedChanges {
				t.Error("Expected unsaved changes")
			}
			entry, ok := st.ModifiedLogs["2026-03-10"]
			if !ok {
				t.Fatal("Expected a ledger entry for the selected date")
			}
			tt.validate(t, st.DailyLog)
			tt.validate(t, entry)
		})
	}
}

func TestActions_FocusSession(t *testing.T) {
	t.Parallel()

	now := fixedNow
	s := New(&fakeGateway{},
		WithClock(func() time.Time { return now }, time.UTC),
		WithSavePolicy(NeverPolicy()),
	)

	if !s.StartFocus() {
		t.Fatal("Expected focus to start")
	}
	if s.StartFocus() {
		t.Error("Expected a second start to be a no-op")
	}

	now = fixedNow.Add(25*time.Minute + 40*time.Second)
	if got := s.StopFocus(); got != 25 {
		t.Errorf("Expected 25 minutes added, got %d", got)
	}
	if got := s.StopFocus(); got != 0 {
		t.Errorf("Expected stopping an idle session to add 0, got %d", got)
	}

	l := s.State().DailyLog
	if l.FocusMinutes != 25 {
		t.Errorf("Expected 25 focus minutes, got %d", l.FocusMinutes)
	}
	if l.IsFocusing() {
		t.Error("Expected the session to be closed")
	}
	if l.FocusEnd == nil || !l.FocusEnd.Equal(now) {
		t.Errorf("Expected focus end %s, got %v", now, l.FocusEnd)
	}
}

func TestActions_Tasks(t *testing.T) {
	t.Parallel()

	s := newTestStore(&fakeGateway{})
	seed(s, func(st *State) {
		st.Tasks = []models.Task{{ID: "task-9", Title: "existing"}}
	})

	high := models.PriorityHigh
	id := s.AddTask("new task", &high)
	if !models.IsTempID(id) {
		t.Fatalf("Expected a temporary id, got %s", id)
	}

	st := s.State()
	if st.Tasks[0].ID != id {
		t.Errorf("Expected new task to be first, got %s", st.Tasks[0].ID)
	}
	if st.Tasks[0].Priority == nil || *st.Tasks[0].Priority != models.PriorityHigh {
		t.Error("Expected priority high")
	}

	if s.UpdateTaskTitle(id, "   ") {
		t.Error("Expected a blank title to be ignored")
	}
	if !s.UpdateTaskTitle(id, "  renamed  ") {
		t.Error("Expected title update to apply")
	}
	if !s.SetTaskDueDate(id, strPtr("2026-03-12")) {
		t.Error("Expected due date update to apply")
	}

	if !s.ToggleTaskCompletion(id, false) {
		t.Fatal("Expected toggle to apply")
	}
	task, _ := s.State().Task(id)
	if task.Title != "renamed" || !task.IsCompleted || task.CompletedAt == nil {
		t.Errorf("Expected renamed completed task, got %+v", task)
	}
	if task.DueDate == nil || *task.DueDate != "2026-03-12" {
		t.Errorf("Expected due date 2026-03-12, got %v", task.DueDate)
	}

	s.ToggleTaskCompletion(id, true)
	task, _ = s.State().Task(id)
	if task.IsCompleted || task.CompletedAt != nil {
		t.Errorf("Expected task to be reopened, got %+v", task)
	}

	s.RemoveTask(id)
	s.RemoveTask("task-9")
	st = s.State()
	if len(st.Tasks) != 0 {
		t.Errorf("Expected no tasks, got %d", len(st.Tasks))
	}
	if len(st.DeletedTaskIDs) != 1 || st.DeletedTaskIDs[0] != "task-9" {
		t.Errorf("Expected only the permanent id to be queued, got %v", st.DeletedTaskIDs)
	}
	if s.RemoveTask("missing") {
		t.Error("Expected removing an unknown task to report false")
	}
}

func TestActions_RemoveHabitDefinition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		id          string
		wantDeleted []string
	}{
		{name: "permanent id is queued", id: "h-1", wantDeleted: []string{"h-1"}},
		{name: "temporary id is not queued", id: "temp-7", wantDeleted: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestStore(&fakeGateway{})
			seed(s, func(st *State) {
				st.SelectedDate = "2026-03-10"
				st.DailyLog = models.DailyLog{
					Date:         "2026-03-10",
					HabitsStatus: map[string]bool{tt.id: true, "other": true},
				}
				st.HabitDefinitions = []models.HabitDefinition{
					{ID: tt.id, Name: "Read"},
					{ID: "other", Name: "Run"},
				}
			})

			if !s.RemoveHabitDefinition(tt.id) {
				t.Fatal("Expected removal to apply")
			}
			st := s.State()
			if len(st.HabitDefinitions) != 1 || st.HabitDefinitions[0].ID != "other" {
				t.Errorf("Expected only the other habit to remain, got %+v", st.HabitDefinitions)
			}
			if _, ok := st.DailyLog.HabitsStatus[tt.id]; ok {
				t.Error("Expected the status key to be stripped")
			}
			if _, ok := st.ModifiedLogs["2026-03-10"].HabitsStatus[tt.id]; ok {
				t.Error("Expected the ledger entry to be stripped")
			}
			if len(st.DeletedHabitIDs) != len(tt.wantDeleted) {
				t.Errorf("Expected deleted ids %v, got %v", tt.wantDeleted, st.DeletedHabitIDs)
			}
		})
	}
}

func TestActions_HabitDefinitions(t *testing.T) {
	t.Parallel()

	s := newTestStore(&fakeGateway{})
	id := s.AddHabitDefinition(" Read ", strPtr("Book"), nil)

	h, ok := s.State().Habit(id)
	if !ok {
		t.Fatal("Expected habit to be added")
	}
	if h.Name != "Read" || h.Icon == nil || *h.Icon != "Book" || h.Color != nil {
		t.Errorf("Expected trimmed habit with icon, got %+v", h)
	}

	s.UpdateHabitDefinition(id, HabitPatch{Name: strPtr("Reading"), Icon: strPtr(""), Color: strPtr("#00ff00")})
	h, _ = s.State().Habit(id)
	if h.Name != "Reading" || h.Icon != nil || h.Color == nil || *h.Color != "#00ff00" {
		t.Errorf("Expected patched habit, got %+v", h)
	}
	if s.UpdateHabitDefinition("missing", HabitPatch{Name: strPtr("x")}) {
		t.Error("Expected patching an unknown habit to report false")
	}
}

func TestActions_UpdateUserSettings(t *testing.T) {
	t.Parallel()

	t.Run("merges into defaults when unset", func(t *testing.T) {
		t.Parallel()

		s := newTestStore(&fakeGateway{})
		goal := 100
		s.UpdateUserSettings(SettingsPatch{PushupGoal: &goal})

		us := s.State().UserSettings
		if us == nil {
			t.Fatal("Expected settings to be set")
		}
		if us.PushupGoal != 100 || us.TargetSleepHours != models.DefaultTargetSleepHours || us.TargetFocusHours != models.DefaultTargetFocusHours {
			t.Errorf("Expected defaults with goal 100, got %+v", *us)
		}
	})

	t.Run("merges into existing settings", func(t *testing.T) {
		t.Parallel()

		s := newTestStore(&fakeGateway{})
		seed(s, func(st *State) {
			st.UserSettings = &models.UserSettings{PushupGoal: 30, TargetSleepHours: 7, TargetFocusHours: 2}
		})
		sleep := 7.5
		s.UpdateUserSettings(SettingsPatch{TargetSleepHours: &sleep})

		us := s.State().UserSettings
		if us.PushupGoal != 30 || us.TargetSleepHours != 7.5 || us.TargetFocusHours != 2 {
			t.Errorf("Expected merged settings, got %+v", *us)
		}
	})
}
