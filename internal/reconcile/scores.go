package reconcile

import (
	"time"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// SleepQuality buckets a night's duration.
type SleepQuality string

const (
	SleepInsufficient SleepQuality = "insufficient"
	SleepFair         SleepQuality = "fair"
	SleepOptimal      SleepQuality = "optimal"
	SleepExcessive    SleepQuality = "excessive"
)

// tasksForFullScore is the number of completed tasks that maxes out the task share of the score.
const tasksForFullScore = 5

// DurationHours returns whole elapsed minutes between start and end, in hours.
// Missing endpoints and negative spans yield 0.
func DurationHours(start, end *time.Time) float64 {
	if start == nil || end == nil {
		return 0
	}
	minutes := int(end.Sub(*start).Minutes())
	if minutes < 0 {
		return 0
	}
	return float64(minutes) / 60
}

// RateSleep classifies a sleep duration in hours.
func RateSleep(hours float64) SleepQuality {
	switch {
	case hours < 6:
		return SleepInsufficient
	case hours < 7:
		return SleepFair
	case hours <= 9:
		return SleepOptimal
	default:
		return SleepExcessive
	}
}

// ProductivityScore averages three ratios in [0,1]: habits done out of the
// defined habits, push-ups against the goal, and completed tasks against five.
func ProductivityScore(log *models.DailyLog, habits []models.HabitDefinition, tasksDone, pushupGoal int) float64 {
	habitsRatio := 0.0
	if len(habits) > 0 && log != nil {
		done := 0
		for _, h := range habits {
			if log.HabitsStatus[h.ID] {
				done++
			}
		}
		habitsRatio = float64(done) / float64(len(habits))
	}

	pushups := 0
	if log != nil {
		pushups = log.PushupCount
	}
	pushupRatio := clamp01(float64(pushups) / float64(max(pushupGoal, 1)))
	tasksRatio := clamp01(float64(tasksDone) / tasksForFullScore)

	return clamp01((habitsRatio + pushupRatio + tasksRatio) / 3)
}

// TasksCompletedOn counts tasks whose completion falls on date in loc.
func TasksCompletedOn(tasks []models.Task, date string, loc *time.Location) int {
	n := 0
	for _, t := range tasks {
		if t.IsCompleted && t.CompletedAt != nil && DateKeyIn(*t.CompletedAt, loc) == date {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
