package reconcile

import (
	"sort"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// MergeLogs overlays pending local edits on server logs. A ledger entry replaces
// the server entry for the same date, ledger-only dates are included, and the
// result is sorted ascending by date. Neither input is modified.
func MergeLogs(server []models.DailyLog, ledger map[string]models.DailyLog) []models.DailyLog {
	byDate := make(map[string]models.DailyLog, len(server)+len(ledger))
	for _, l := range server {
		byDate[l.Date] = l
	}
	for date, l := range ledger {
		l.Date = date
		byDate[date] = l
	}

	out := make([]models.DailyLog, 0, len(byDate))
	for _, l := range byDate {
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// SortLogs returns a copy of logs sorted ascending by date.
func SortLogs(logs []models.DailyLog) []models.DailyLog {
	out := make([]models.DailyLog, len(logs))
	copy(out, logs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// SliceWindows sorts a year of logs and cuts it into the cached chart windows.
func SliceWindows(logs []models.DailyLog) models.LogWindows {
	sorted := SortLogs(logs)
	return models.LogWindows{
		Last7:   tail(sorted, 7),
		Last28:  tail(sorted, 28),
		Last91:  tail(sorted, 91),
		Last180: tail(sorted, 180),
		Last365: tail(sorted, 365),
	}
}

func tail(logs []models.DailyLog, n int) []models.DailyLog {
	if len(logs) > n {
		logs = logs[len(logs)-n:]
	}
	out := make([]models.DailyLog, len(logs))
	copy(out, logs)
	return out
}
