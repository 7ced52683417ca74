package reconcile

import (
	"strings"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// DedupeHabits keeps one habit per case-insensitive name. The first occurrence
// wins unless it carries a temporary id and a later one has a permanent id.
// Output order follows the first appearance of each name.
func DedupeHabits(habits []models.HabitDefinition) []models.HabitDefinition {
	index := make(map[string]int, len(habits))
	out := make([]models.HabitDefinition, 0, len(habits))
	for _, h := range habits {
		key := strings.ToLower(h.Name)
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, h)
			continue
		}
		if models.IsTempID(out[i].ID) && !models.IsTempID(h.ID) {
			out[i] = h
		}
	}
	return out
}

// HabitNames returns the set of lowercased habit names.
func HabitNames(habits []models.HabitDefinition) map[string]struct{} {
	names := make(map[string]struct{}, len(habits))
	for _, h := range habits {
		names[strings.ToLower(h.Name)] = struct{}{}
	}
	return names
}
