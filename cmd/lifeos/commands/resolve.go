package commands

import (
	"fmt"
	"strings"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// resolveID finds the single id matching ref. An exact id wins, then a unique
// prefix of the id with or without its temporary prefix.
func resolveID(kind, ref string, ids []string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%s id is required", kind)
	}
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, ref) || strings.HasPrefix(strings.TrimPrefix(id, models.TempIDPrefix), ref) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no %s matches %q", kind, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q matches %d %ss; use a longer id", ref, len(matches), kind)
	}
}

func resolveTask(tasks []models.Task, ref string) (string, error) {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return resolveID("task", ref, ids)
}

// resolveHabit also accepts the habit's name, compared case-insensitively.
func resolveHabit(habits []models.HabitDefinition, ref string) (string, error) {
	for _, h := range habits {
		if strings.EqualFold(strings.TrimSpace(h.Name), strings.TrimSpace(ref)) {
			return h.ID, nil
		}
	}
	ids := make([]string, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}
	return resolveID("habit", ref, ids)
}

func parsePriority(raw string) (*models.Priority, error) {
	if raw == "" {
		return nil, nil
	}
	p := models.Priority(strings.ToLower(raw))
	if !p.Valid() {
		return nil, fmt.Errorf("invalid priority %q: use urgent, high or normal", raw)
	}
	if p == models.PriorityNormal {
		return nil, nil
	}
	return &p, nil
}
