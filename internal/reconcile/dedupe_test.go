package reconcile

import (
	"testing"

	"github.com/duongtruongbinh/life-os/internal/models"
)

func TestDedupeHabits(t *testing.T) {
	t.Parallel()

	const permA = "11111111-1111-1111-1111-111111111111"
	const permB = "22222222-2222-2222-2222-222222222222"

	tests := []struct {
		name    string
		input   []models.HabitDefinition
		wantIDs []string
	}{
		{
			name: "permanent replaces earlier temporary",
			input: []models.HabitDefinition{
				{ID: "temp-1", Name: "Exercise"},
				{ID: permA, Name: "exercise"},
			},
			wantIDs: []string{permA},
		},
		{
			name: "first permanent wins over later permanent",
			input: []models.HabitDefinition{
				{ID: permA, Name: "English"},
				{ID: permB, Name: "ENGLISH"},
			},
			wantIDs: []string{permA},
		},
		{
			name: "temporary after permanent is dropped",
			input: []models.HabitDefinition{
				{ID: permA, Name: "Read"},
				{ID: "temp-2", Name: "read"},
			},
			wantIDs: []string{permA},
		},
		{
			name: "distinct names kept in order",
			input: []models.HabitDefinition{
				{ID: "temp-1", Name: "Exercise"},
				{ID: "temp-2", Name: "English"},
			},
			wantIDs: []string{"temp-1", "temp-2"},
		},
		{
			name:    "empty input",
			input:   nil,
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DedupeHabits(tt.input)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Expected %d habits, got %d (%+v)", len(tt.wantIDs), len(got), got)
			}
			for i, h := range got {
				if h.ID != tt.wantIDs[i] {
					t.Errorf("Expected id %s at %d, got %s", tt.wantIDs[i], i, h.ID)
				}
			}
		})
	}
}
