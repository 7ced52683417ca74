package store

import (
	"github.com/duongtruongbinh/life-os/internal/models"
)

// Action names a state transition. Subscribers receive it with every change.
type Action string

const (
	ActionHydrate         Action = "hydrate"
	ActionReset           Action = "reset"
	ActionSetSelectedDate Action = "set_selected_date"
	ActionDateLoaded      Action = "date_loaded"
	ActionLoadStarted     Action = "load_started"
	ActionLoadFinished    Action = "load_finished"
	ActionSaveStarted     Action = "save_started"
	ActionSaveFinished    Action = "save_finished"
	ActionSaveFailed      Action = "save_failed"
	ActionSetSleepStart   Action = "set_sleep_start"
	ActionSetSleepEnd     Action = "set_sleep_end"
	ActionStartFocus      Action = "start_focus"
	ActionStopFocus       Action = "stop_focus"
	ActionSetFocusMinutes Action = "set_focus_minutes"
	ActionToggleHabit     Action = "toggle_habit"
	ActionSetPushups      Action = "set_pushups"
	ActionSetNotes        Action = "set_notes"
	ActionAddTask         Action = "add_task"
	ActionUpdateTask      Action = "update_task"
	ActionToggleTask      Action = "toggle_task"
	ActionRemoveTask      Action = "remove_task"
	ActionAddHabit        Action = "add_habit"
	ActionUpdateHabit     Action = "update_habit"
	ActionRemoveHabit     Action = "remove_habit"
	ActionUpdateSettings  Action = "update_settings"
	ActionSetError        Action = "set_error"
)

// State is the client-side view plus the pending-edit ledger. Fields tagged
// json:"-" are transient and never written to the local cache.
type State struct {
	IsInitialized    bool                       `json:"is_initialized"`
	SelectedDate     string                     `json:"selected_date"`
	DailyLog         models.DailyLog            `json:"daily_log"`
	ModifiedLogs     map[string]models.DailyLog `json:"modified_logs"`
	Tasks            []models.Task              `json:"tasks"`
	DeletedTaskIDs   []string                   `json:"deleted_task_ids"`
	HabitDefinitions []models.HabitDefinition   `json:"habit_definitions"`
	DeletedHabitIDs  []string                   `json:"deleted_habit_ids"`
	UserSettings     *models.UserSettings       `json:"user_settings"`
	UnsavedChanges   bool                       `json:"unsaved_changes"`
	models.LogWindows

	Loading bool   `json:"-"`
	Saving  bool   `json:"-"`
	Error   string `json:"-"`
}

func initialState() State {
	return State{
		DailyLog:     models.EmptyDailyLog(""),
		ModifiedLogs: map[string]models.DailyLog{},
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.DailyLog = s.DailyLog.Clone()
	out.ModifiedLogs = cloneLedger(s.ModifiedLogs)
	out.Tasks = models.CloneTasks(s.Tasks)
	out.DeletedTaskIDs = cloneStrings(s.DeletedTaskIDs)
	out.HabitDefinitions = models.CloneHabits(s.HabitDefinitions)
	out.DeletedHabitIDs = cloneStrings(s.DeletedHabitIDs)
	if s.UserSettings != nil {
		us := *s.UserSettings
		out.UserSettings = &us
	}
	out.LogWindows = models.LogWindows{
		Last7:   models.CloneLogs(s.Last7),
		Last28:  models.CloneLogs(s.Last28),
		Last91:  models.CloneLogs(s.Last91),
		Last180: models.CloneLogs(s.Last180),
		Last365: models.CloneLogs(s.Last365),
	}
	return out
}

// Task returns the task with id, if present.
func (s State) Task(id string) (models.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Habit returns the habit definition with id, if present.
func (s State) Habit(id string) (models.HabitDefinition, bool) {
	for _, h := range s.HabitDefinitions {
		if h.ID == id {
			return h, true
		}
	}
	return models.HabitDefinition{}, false
}

// cachedLog looks a date up in the cached windows, widest first.
func (s State) cachedLog(date string) (models.DailyLog, bool) {
	for _, window := range [][]models.DailyLog{s.Last365, s.Last180, s.Last91, s.Last28, s.Last7} {
		for _, l := range window {
			if l.Date == date {
				return l, true
			}
		}
	}
	return models.DailyLog{}, false
}

// hasPendingEntities reports whether any task or habit still carries a temporary id.
func (s State) hasPendingEntities() bool {
	for _, t := range s.Tasks {
		if models.IsTempID(t.ID) {
			return true
		}
	}
	for _, h := range s.HabitDefinitions {
		if models.IsTempID(h.ID) {
			return true
		}
	}
	return false
}

func cloneLedger(in map[string]models.DailyLog) map[string]models.DailyLog {
	out := make(map[string]models.DailyLog, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
