package models

import (
	"time"
)

// Priority represents how urgent a task is. A nil priority means normal.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal:
		return true
	default:
		return false
	}
}

// Task is a to-do owned by one user.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id,omitempty"`
	Title       string     `json:"title"`
	IsCompleted bool       `json:"is_completed"`
	Priority    *Priority  `json:"priority"`
	DueDate     *string    `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// TaskInsert is the payload for a task the server has not seen yet.
type TaskInsert struct {
	Title       string     `json:"title" validate:"required,max=500"`
	IsCompleted bool       `json:"is_completed"`
	Priority    *Priority  `json:"priority,omitempty" validate:"omitempty,priority"`
	DueDate     *string    `json:"due_date,omitempty" validate:"omitempty,date_key"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskUpdate is the payload for an existing task.
type TaskUpdate struct {
	ID          string     `json:"id" validate:"required,uuid"`
	Title       string     `json:"title" validate:"required,max=500"`
	IsCompleted bool       `json:"is_completed"`
	Priority    *Priority  `json:"priority,omitempty" validate:"omitempty,priority"`
	DueDate     *string    `json:"due_date,omitempty" validate:"omitempty,date_key"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ToInsert builds the insert payload for a locally created task.
func (t Task) ToInsert() TaskInsert {
	return TaskInsert{
		Title:       t.Title,
		IsCompleted: t.IsCompleted,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
	}
}

// ToUpdate builds the update payload for a task that already has a server id.
func (t Task) ToUpdate() TaskUpdate {
	return TaskUpdate{
		ID:          t.ID,
		Title:       t.Title,
		IsCompleted: t.IsCompleted,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CompletedAt: t.CompletedAt,
	}
}

// CloneTasks copies tasks including pointer fields.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t
		if t.Priority != nil {
			p := *t.Priority
			out[i].Priority = &p
		}
		if t.DueDate != nil {
			d := *t.DueDate
			out[i].DueDate = &d
		}
		out[i].CompletedAt = cloneTime(t.CompletedAt)
	}
	return out
}
