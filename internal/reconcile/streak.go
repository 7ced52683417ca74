package reconcile

import "github.com/duongtruongbinh/life-os/internal/models"

// CurrentStreak counts consecutive days the habit was done, ending today. A
// missing today does not break the streak; counting then starts from yesterday.
func CurrentStreak(habitID string, logs []models.DailyLog, today string) int {
	done := make(map[string]bool, len(logs))
	for _, l := range logs {
		done[l.Date] = l.HabitsStatus[habitID]
	}

	cursor := today
	if !done[cursor] {
		prev, err := AddDays(cursor, -1)
		if err != nil {
			return 0
		}
		cursor = prev
	}

	streak := 0
	for done[cursor] {
		streak++
		prev, err := AddDays(cursor, -1)
		if err != nil {
			break
		}
		cursor = prev
	}
	return streak
}
