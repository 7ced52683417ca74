package models

import "time"

// HabitDefinition is a habit the user tracks daily. Names are unique per user, case-insensitively.
type HabitDefinition struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Icon      *string   `json:"icon"`
	Color     *string   `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// HabitInsert is the payload for a habit the server has not seen yet.
type HabitInsert struct {
	Name  string  `json:"name" validate:"required,max=100"`
	Icon  *string `json:"icon,omitempty" validate:"omitempty,max=64"`
	Color *string `json:"color,omitempty" validate:"omitempty,max=32"`
}

// HabitUpdate is the payload for an existing habit.
type HabitUpdate struct {
	ID    string  `json:"id" validate:"required,uuid"`
	Name  string  `json:"name" validate:"required,max=100"`
	Icon  *string `json:"icon,omitempty" validate:"omitempty,max=64"`
	Color *string `json:"color,omitempty" validate:"omitempty,max=32"`
}

// HabitStreak is the server-side rollup of a habit's current streak.
type HabitStreak struct {
	HabitID       string    `json:"habit_id"`
	Name          string    `json:"name"`
	CurrentStreak int       `json:"current_streak"`
	AsOf          string    `json:"as_of"`
	ComputedAt    time.Time `json:"computed_at"`
}

// CloneHabits copies habit definitions including pointer fields.
func CloneHabits(habits []HabitDefinition) []HabitDefinition {
	if habits == nil {
		return nil
	}
	out := make([]HabitDefinition, len(habits))
	for i, h := range habits {
		out[i] = h
		if h.Icon != nil {
			icon := *h.Icon
			out[i].Icon = &icon
		}
		if h.Color != nil {
			color := *h.Color
			out[i].Color = &color
		}
	}
	return out
}

// ToInsert builds the insert payload for a locally created habit.
func (h HabitDefinition) ToInsert() HabitInsert {
	return HabitInsert{Name: h.Name, Icon: h.Icon, Color: h.Color}
}

// ToUpdate builds the update payload for a habit that already has a server id.
func (h HabitDefinition) ToUpdate() HabitUpdate {
	return HabitUpdate{ID: h.ID, Name: h.Name, Icon: h.Icon, Color: h.Color}
}
