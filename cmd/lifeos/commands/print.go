package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/reconcile"
)

var (
	bold  = color.New(color.Bold)
	faint = color.New(color.Faint)
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
	amber = color.New(color.FgYellow)
)

const shortIDLength = 8

// shortID is the id as shown in tables. Ids still waiting for a server id are
// shown without their temporary prefix.
func shortID(id string) string {
	id = strings.TrimPrefix(id, models.TempIDPrefix)
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}

func newTable() *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	return tbl
}

func check(done bool) string {
	if done {
		return green.Sprint("✓")
	}
	return faint.Sprint("·")
}

func syncMark(id string) string {
	if models.IsTempID(id) {
		return amber.Sprint("*")
	}
	return ""
}

func priorityLabel(p *models.Priority) string {
	if p == nil {
		return faint.Sprint(string(models.PriorityNormal))
	}
	switch *p {
	case models.PriorityUrgent:
		return red.Sprint(string(*p))
	case models.PriorityHigh:
		return amber.Sprint(string(*p))
	default:
		return string(*p)
	}
}

func sleepQualityLabel(q reconcile.SleepQuality) string {
	switch q {
	case reconcile.SleepOptimal:
		return green.Sprint(string(q))
	case reconcile.SleepInsufficient, reconcile.SleepExcessive:
		return red.Sprint(string(q))
	default:
		return amber.Sprint(string(q))
	}
}

func clockTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format("15:04")
}

func printHabits(w io.Writer, habits []models.HabitDefinition, log models.DailyLog, streak func(string) int) {
	if len(habits) == 0 {
		_, _ = fmt.Fprintln(w, faint.Sprint("no habits"))
		return
	}
	tbl := newTable()
	tbl.AddRow("", bold.Sprint("ID"), bold.Sprint("HABIT"), bold.Sprint("STREAK"))
	for _, h := range habits {
		name := h.Name
		if h.Icon != nil && *h.Icon != "" {
			name = *h.Icon + " " + name
		}
		tbl.AddRow(check(log.HabitDone(h.ID)), shortID(h.ID)+syncMark(h.ID), name, streak(h.ID))
	}
	tbl.RightAlign(3)
	_, _ = fmt.Fprintln(w, tbl)
}

func printTasks(w io.Writer, tasks []models.Task, showDone bool) {
	tbl := newTable()
	tbl.AddRow("", bold.Sprint("ID"), bold.Sprint("PRIORITY"), bold.Sprint("TITLE"), bold.Sprint("DUE"))
	rows := 0
	for _, t := range tasks {
		if t.IsCompleted && !showDone {
			continue
		}
		due := "-"
		if t.DueDate != nil {
			due = *t.DueDate
		}
		tbl.AddRow(check(t.IsCompleted), shortID(t.ID)+syncMark(t.ID), priorityLabel(t.Priority), t.Title, due)
		rows++
	}
	if rows == 0 {
		_, _ = fmt.Fprintln(w, faint.Sprint("no tasks"))
		return
	}
	_, _ = fmt.Fprintln(w, tbl)
}
