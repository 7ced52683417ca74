package models

import "time"

const (
	DefaultPushupGoal       = 50
	DefaultTargetSleepHours = 8.0
	DefaultTargetFocusHours = 4.0
)

// UserSettings holds per-user goals. There is at most one row per user.
type UserSettings struct {
	UserID           string    `json:"user_id,omitempty"`
	PushupGoal       int       `json:"pushup_goal"`
	TargetSleepHours float64   `json:"target_sleep_hours"`
	TargetFocusHours float64   `json:"target_focus_hours"`
	CreatedAt        time.Time `json:"created_at"`
}

// SettingsInput is the upsert payload for user settings.
type SettingsInput struct {
	PushupGoal       int     `json:"pushup_goal" validate:"required,min=1,max=100000"`
	TargetSleepHours float64 `json:"target_sleep_hours" validate:"gte=0,lte=24"`
	TargetFocusHours float64 `json:"target_focus_hours" validate:"gte=0,lte=24"`
}

// DefaultUserSettings returns the settings used until the user saves their own.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		PushupGoal:       DefaultPushupGoal,
		TargetSleepHours: DefaultTargetSleepHours,
		TargetFocusHours: DefaultTargetFocusHours,
	}
}

// Input converts settings into the upsert payload, filling unset targets with defaults.
func (s UserSettings) Input() SettingsInput {
	in := SettingsInput{
		PushupGoal:       s.PushupGoal,
		TargetSleepHours: s.TargetSleepHours,
		TargetFocusHours: s.TargetFocusHours,
	}
	if in.PushupGoal <= 0 {
		in.PushupGoal = DefaultPushupGoal
	}
	if in.TargetSleepHours == 0 {
		in.TargetSleepHours = DefaultTargetSleepHours
	}
	if in.TargetFocusHours == 0 {
		in.TargetFocusHours = DefaultTargetFocusHours
	}
	return in
}
