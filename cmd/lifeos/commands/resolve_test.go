package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/duongtruongbinh/life-os/internal/models"
)

func TestResolveID(t *testing.T) {
	t.Parallel()

	ids := []string{
		"3f2a9c1b-0000-4000-8000-000000000001",
		"3f2b0000-0000-4000-8000-000000000002",
		"temp-9d8c7b6a-0000-4000-8000-000000000003",
	}

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr string
	}{
		{name: "exact id", ref: ids[1], want: ids[1]},
		{name: "unique prefix", ref: "3f2a", want: ids[0]},
		{name: "temporary id without its prefix", ref: "9d8c", want: ids[2]},
		{name: "temporary id with its prefix", ref: "temp-9d", want: ids[2]},
		{name: "ambiguous prefix", ref: "3f2", wantErr: "matches 2 tasks"},
		{name: "no match", ref: "ffff", wantErr: "no task matches"},
		{name: "empty", ref: " ", wantErr: "task id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := resolveID("task", tt.ref, ids)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestResolveHabitByName(t *testing.T) {
	t.Parallel()

	habits := []models.HabitDefinition{
		{ID: "a1", Name: "Read"},
		{ID: "a2", Name: "Meditate"},
	}
	id, err := resolveHabit(habits, "  meditate ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if id != "a2" {
		t.Errorf("Expected a2, got %s", id)
	}
	if _, err := resolveHabit(habits, "a"); err == nil {
		t.Errorf("Expected an ambiguous prefix to fail")
	}
}

func TestParsePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    *models.Priority
		wantErr bool
	}{
		{raw: ""},
		{raw: "normal"},
		{raw: "HIGH", want: ptr(models.PriorityHigh)},
		{raw: "urgent", want: ptr(models.PriorityUrgent)},
		{raw: "later", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parsePriority(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: expected error %v, got %v", tt.raw, tt.wantErr, err)
			continue
		}
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("%q: expected nil priority, got %s", tt.raw, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("%q: expected %s, got %v", tt.raw, *tt.want, got)
		}
	}
}

func ptr[T any](v T) *T { return &v }

func TestParseAt(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("ICT", 7*3600)
	tests := []struct {
		name    string
		raw     string
		before  bool
		want    time.Time
		wantErr bool
	}{
		{
			name: "morning clock time stays on the date",
			raw:  "06:45",
			want: time.Date(2026, 10, 17, 6, 45, 0, 0, loc),
		},
		{
			name:   "evening bedtime moves to the night before",
			raw:    "23:10",
			before: true,
			want:   time.Date(2026, 10, 16, 23, 10, 0, 0, loc),
		},
		{
			name:   "early bedtime stays on the date",
			raw:    "01:30",
			before: true,
			want:   time.Date(2026, 10, 17, 1, 30, 0, 0, loc),
		},
		{
			name: "rfc3339 is taken as is",
			raw:  "2026-10-16T22:00:00Z",
			want: time.Date(2026, 10, 16, 22, 0, 0, 0, time.UTC),
		},
		{name: "garbage", raw: "late", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseAt(tt.raw, "2026-10-17", loc, tt.before)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected an error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEncodeExport(t *testing.T) {
	t.Parallel()

	doc := export{
		ExportedAt:       testNow,
		SelectedDate:     "2026-10-17",
		UserSettings:     models.DefaultUserSettings(),
		HabitDefinitions: []models.HabitDefinition{{ID: "h1", Name: "Read"}},
		DailyLogs:        []models.DailyLog{{Date: "2026-10-16", PushupCount: 30, HabitsStatus: map[string]bool{"h1": true}}},
	}

	tests := []struct {
		format   string
		validate func(*testing.T, string, error)
	}{
		{
			format: "json",
			validate: func(t *testing.T, out string, err error) {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				var decoded export
				if err := json.Unmarshal([]byte(out), &decoded); err != nil {
					t.Fatalf("Expected valid JSON, got %v", err)
				}
				if len(decoded.DailyLogs) != 1 || decoded.DailyLogs[0].PushupCount != 30 {
					t.Errorf("Expected the log to round-trip, got %+v", decoded.DailyLogs)
				}
			},
		},
		{
			format: "yaml",
			validate: func(t *testing.T, out string, err error) {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				for _, want := range []string{"habit_definitions:", "pushup_count: 30", "name: Read"} {
					if !strings.Contains(out, want) {
						t.Errorf("Expected YAML to contain %q, got %q", want, out)
					}
				}
			},
		},
		{
			format: "csv",
			validate: func(t *testing.T, _ string, err error) {
				if err == nil || !strings.Contains(err.Error(), "unknown format") {
					t.Errorf("Expected unknown format error, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			err := encodeExport(&buf, doc, tt.format)
			tt.validate(t, buf.String(), err)
		})
	}
}
