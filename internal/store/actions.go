package store

import (
	"strings"
	"time"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// HabitPatch lists the habit fields to change. A nil field is left alone; a
// pointer to "" clears Icon or Color.
type HabitPatch struct {
	Name  *string
	Icon  *string
	Color *string
}

// SettingsPatch lists the settings fields to change.
type SettingsPatch struct {
	PushupGoal       *int
	TargetSleepHours *float64
	TargetFocusHours *float64
}

// mutateLog applies fn to a copy of the selected date's log. When fn reports
// a change, the copy becomes the visible log and the ledger entry for the
// selected date.
func (s *Store) mutateLog(action Action, fn func(l *models.DailyLog) bool) bool {
	s.mu.Lock()
	s.ensureSelectedDate()
	next := s.state.DailyLog.Clone()
	next.Date = s.state.SelectedDate
	if !fn(&next) {
		s.mu.Unlock()
		return false
	}
	s.recordLog(next)
	s.editSeq++
	s.commit(action)
	return true
}

// recordLog must be called with s.mu held.
func (s *Store) recordLog(next models.DailyLog) {
	if s.state.ModifiedLogs == nil {
		s.state.ModifiedLogs = map[string]models.DailyLog{}
	}
	s.state.DailyLog = next
	s.state.ModifiedLogs[next.Date] = next.Clone()
	s.state.UnsavedChanges = true
}

// mutate applies fn to the state and marks it unsaved when fn reports a change.
func (s *Store) mutate(action Action, fn func(st *State) bool) bool {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	s.state.UnsavedChanges = true
	s.editSeq++
	s.commit(action)
	return true
}

func (s *Store) SetSleepStart() {
	s.SetSleepStartAt(s.now())
}

func (s *Store) SetSleepEnd() {
	s.SetSleepEndAt(s.now())
}

// SetSleepStartAt records when sleep began on the selected date.
func (s *Store) SetSleepStartAt(t time.Time) {
	s.mutateLog(ActionSetSleepStart, func(l *models.DailyLog) bool {
		l.SleepStart = &t
		return true
	})
}

// SetSleepEndAt records when sleep ended on the selected date.
func (s *Store) SetSleepEndAt(t time.Time) {
	s.mutateLog(ActionSetSleepEnd, func(l *models.DailyLog) bool {
		l.SleepEnd = &t
		return true
	})
}

// StartFocus opens a focus session. It is a no-op while one is running.
func (s *Store) StartFocus() bool {
	now := s.now()
	return s.mutateLog(ActionStartFocus, func(l *models.DailyLog) bool {
		if l.IsFocusing() {
			return false
		}
		l.FocusStart = &now
		l.FocusEnd = nil
		return true
	})
}

// StopFocus closes the running session and adds its whole elapsed minutes.
// It returns the minutes added, or zero when no session was running.
func (s *Store) StopFocus() int {
	now := s.now()
	added := 0
	s.mutateLog(ActionStopFocus, func(l *models.DailyLog) bool {
		if !l.IsFocusing() {
			return false
		}
		if elapsed := now.Sub(*l.FocusStart); elapsed > 0 {
			added = int(elapsed / time.Minute)
		}
		l.FocusMinutes += added
		l.FocusStart = nil
		l.FocusEnd = &now
		return true
	})
	return added
}

// AddFocusMinutes adjusts the focus total by n. The total never drops below zero.
func (s *Store) AddFocusMinutes(n int) {
	s.mutateLog(ActionSetFocusMinutes, func(l *models.DailyLog) bool {
		l.FocusMinutes = max(l.FocusMinutes+n, 0)
		return true
	})
}

func (s *Store) SetFocusMinutes(n int) {
	s.mutateLog(ActionSetFocusMinutes, func(l *models.DailyLog) bool {
		l.FocusMinutes = max(n, 0)
		return true
	})
}

// ToggleHabit flips the habit's status on the selected date and schedules an auto-save.
func (s *Store) ToggleHabit(habitID string) {
	s.mutateLog(ActionToggleHabit, func(l *models.DailyLog) bool {
		l.HabitsStatus[habitID] = !l.HabitsStatus[habitID]
		return true
	})
	s.scheduler.Schedule()
}

// AddPushupCount adjusts the push-up count by n. The count never drops below zero.
func (s *Store) AddPushupCount(n int) {
	s.mutateLog(ActionSetPushups, func(l *models.DailyLog) bool {
		l.PushupCount = max(l.PushupCount+n, 0)
		return true
	})
}

func (s *Store) SetPushupCount(n int) {
	s.mutateLog(ActionSetPushups, func(l *models.DailyLog) bool {
		l.PushupCount = max(n, 0)
		return true
	})
}

// SetNotes replaces the selected date's notes. nil clears them.
func (s *Store) SetNotes(notes *string) {
	s.mutateLog(ActionSetNotes, func(l *models.DailyLog) bool {
		if notes == nil {
			l.Notes = nil
			return true
		}
		v := *notes
		l.Notes = &v
		return true
	})
}

// AddTask prepends a new task with a temporary id and returns that id.
func (s *Store) AddTask(title string, priority *models.Priority) string {
	id := s.newID()
	task := models.Task{
		ID:        id,
		Title:     title,
		CreatedAt: s.now(),
	}
	if priority != nil {
		p := *priority
		task.Priority = &p
	}
	s.mutate(ActionAddTask, func(st *State) bool {
		st.Tasks = append([]models.Task{task}, st.Tasks...)
		return true
	})
	return id
}

func (s *Store) updateTask(action Action, id string, fn func(t *models.Task)) bool {
	return s.mutate(action, func(st *State) bool {
		for i := range st.Tasks {
			if st.Tasks[i].ID == id {
				fn(&st.Tasks[i])
				return true
			}
		}
		return false
	})
}

func (s *Store) UpdateTaskPriority(id string, priority *models.Priority) bool {
	return s.updateTask(ActionUpdateTask, id, func(t *models.Task) {
		if priority == nil {
			t.Priority = nil
			return
		}
		p := *priority
		t.Priority = &p
	})
}

// UpdateTaskTitle trims newTitle and ignores the call when nothing is left.
func (s *Store) UpdateTaskTitle(id, newTitle string) bool {
	trimmed := strings.TrimSpace(newTitle)
	if trimmed == "" {
		return false
	}
	return s.updateTask(ActionUpdateTask, id, func(t *models.Task) {
		t.Title = trimmed
	})
}

func (s *Store) SetTaskDueDate(id string, due *string) bool {
	return s.updateTask(ActionUpdateTask, id, func(t *models.Task) {
		if due == nil {
			t.DueDate = nil
			return
		}
		d := *due
		t.DueDate = &d
	})
}

// ToggleTaskCompletion sets the task to the opposite of isCompleted and
// schedules an auto-save. isCompleted is the state the caller last saw.
func (s *Store) ToggleTaskCompletion(id string, isCompleted bool) bool {
	now := s.now()
	ok := s.updateTask(ActionToggleTask, id, func(t *models.Task) {
		t.IsCompleted = !isCompleted
		if isCompleted {
			t.CompletedAt = nil
		} else {
			t.CompletedAt = &now
		}
	})
	if ok {
		s.scheduler.Schedule()
	}
	return ok
}

// RemoveTask drops the task locally. Tasks the server knows about are queued for deletion.
func (s *Store) RemoveTask(id string) bool {
	return s.mutate(ActionRemoveTask, func(st *State) bool {
		idx := -1
		for i, t := range st.Tasks {
			if t.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return false
		}
		st.Tasks = append(st.Tasks[:idx:idx], st.Tasks[idx+1:]...)
		if !models.IsTempID(id) && !containsString(st.DeletedTaskIDs, id) {
			st.DeletedTaskIDs = append(st.DeletedTaskIDs, id)
		}
		return true
	})
}

// AddHabitDefinition appends a habit with a temporary id and returns that id.
func (s *Store) AddHabitDefinition(name string, icon, color *string) string {
	id := s.newID()
	habit := models.HabitDefinition{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Icon:      copyString(icon),
		Color:     copyString(color),
		CreatedAt: s.now(),
	}
	s.mutate(ActionAddHabit, func(st *State) bool {
		st.HabitDefinitions = append(st.HabitDefinitions, habit)
		return true
	})
	return id
}

func (s *Store) UpdateHabitDefinition(id string, patch HabitPatch) bool {
	return s.mutate(ActionUpdateHabit, func(st *State) bool {
		for i := range st.HabitDefinitions {
			h := &st.HabitDefinitions[i]
			if h.ID != id {
				continue
			}
			if patch.Name != nil {
				h.Name = strings.TrimSpace(*patch.Name)
			}
			if patch.Icon != nil {
				h.Icon = nonEmpty(*patch.Icon)
			}
			if patch.Color != nil {
				h.Color = nonEmpty(*patch.Color)
			}
			return true
		}
		return false
	})
}

// RemoveHabitDefinition drops the habit, strips it from the selected date's
// log, and queues it for deletion when the server knows about it.
func (s *Store) RemoveHabitDefinition(id string) bool {
	s.mu.Lock()
	idx := -1
	for i, h := range s.state.HabitDefinitions {
		if h.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.ensureSelectedDate()
	habits := s.state.HabitDefinitions
	s.state.HabitDefinitions = append(habits[:idx:idx], habits[idx+1:]...)
	if !models.IsTempID(id) && !containsString(s.state.DeletedHabitIDs, id) {
		s.state.DeletedHabitIDs = append(s.state.DeletedHabitIDs, id)
	}

	next := s.state.DailyLog.Clone()
	next.Date = s.state.SelectedDate
	delete(next.HabitsStatus, id)
	s.recordLog(next)
	s.editSeq++
	s.commit(ActionRemoveHabit)
	return true
}

// UpdateUserSettings merges patch into the current settings, or into the
// defaults when none are loaded.
func (s *Store) UpdateUserSettings(patch SettingsPatch) {
	s.mutate(ActionUpdateSettings, func(st *State) bool {
		next := models.DefaultUserSettings()
		if st.UserSettings != nil {
			next = *st.UserSettings
		}
		if patch.PushupGoal != nil {
			next.PushupGoal = *patch.PushupGoal
		}
		if patch.TargetSleepHours != nil {
			next.TargetSleepHours = *patch.TargetSleepHours
		}
		if patch.TargetFocusHours != nil {
			next.TargetFocusHours = *patch.TargetFocusHours
		}
		st.UserSettings = &next
		return true
	})
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func nonEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
