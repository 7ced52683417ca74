package models

import "time"

// DailyLog is the per-user record for one calendar date (YYYY-MM-DD).
type DailyLog struct {
	UserID       string          `json:"user_id,omitempty"`
	Date         string          `json:"date"`
	SleepStart   *time.Time      `json:"sleep_start"`
	SleepEnd     *time.Time      `json:"sleep_end"`
	FocusStart   *time.Time      `json:"focus_start"`
	FocusEnd     *time.Time      `json:"focus_end"`
	FocusMinutes int             `json:"focus_minutes"`
	HabitsStatus map[string]bool `json:"habits_status"`
	PushupCount  int             `json:"pushup_count"`
	Notes        *string         `json:"notes"`
}

// EmptyDailyLog returns the zero-value log for date.
func EmptyDailyLog(date string) DailyLog {
	return DailyLog{
		Date:         date,
		HabitsStatus: map[string]bool{},
	}
}

// Clone returns a deep copy so callers can mutate it without touching the original.
func (l DailyLog) Clone() DailyLog {
	out := l
	out.SleepStart = cloneTime(l.SleepStart)
	out.SleepEnd = cloneTime(l.SleepEnd)
	out.FocusStart = cloneTime(l.FocusStart)
	out.FocusEnd = cloneTime(l.FocusEnd)
	out.HabitsStatus = make(map[string]bool, len(l.HabitsStatus))
	for k, v := range l.HabitsStatus {
		out.HabitsStatus[k] = v
	}
	if l.Notes != nil {
		notes := *l.Notes
		out.Notes = &notes
	}
	return out
}

// IsSleeping reports whether a sleep session is open.
func (l DailyLog) IsSleeping() bool {
	return l.SleepStart != nil && l.SleepEnd == nil
}

// IsFocusing reports whether a focus session is running.
func (l DailyLog) IsFocusing() bool {
	return l.FocusStart != nil
}

// HabitDone reports whether habitID is marked done in this log.
func (l DailyLog) HabitDone(habitID string) bool {
	return l.HabitsStatus[habitID]
}

// LogWindows holds the cached server history, each window sorted ascending by date.
type LogWindows struct {
	Last7   []DailyLog `json:"daily_logs_last_7"`
	Last28  []DailyLog `json:"daily_logs_last_28"`
	Last91  []DailyLog `json:"daily_logs_last_91"`
	Last180 []DailyLog `json:"daily_logs_last_180"`
	Last365 []DailyLog `json:"daily_logs_last_365"`
}

// DashboardData is the aggregated read used to hydrate a client.
type DashboardData struct {
	DailyLog         *DailyLog         `json:"daily_log"`
	Tasks            []Task            `json:"tasks"`
	HabitDefinitions []HabitDefinition `json:"habit_definitions"`
	UserSettings     *UserSettings     `json:"user_settings"`
	LogWindows
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// CloneLogs deep-copies a slice of logs.
func CloneLogs(logs []DailyLog) []DailyLog {
	if logs == nil {
		return nil
	}
	out := make([]DailyLog, len(logs))
	for i, l := range logs {
		out[i] = l.Clone()
	}
	return out
}
