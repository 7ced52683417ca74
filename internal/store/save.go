package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/reconcile"
)

// RefreshWindowDays is how much history is re-read after a successful save.
const RefreshWindowDays = 365

type saveSnapshot struct {
	ledger          map[string]models.DailyLog
	dates           []string
	tasks           []models.Task
	deletedTaskIDs  []string
	habits          []models.HabitDefinition
	deletedHabitIDs []string
	editSeq         uint64
	generation      uint64
}

// SaveData pushes pending work through the gateway: habits first so temporary
// habit ids can be remapped in the logs, then logs, tasks, settings, and a
// refresh of the cached history. It reports whether everything succeeded.
// Edits made while the save runs stay pending.
func (s *Store) SaveData(ctx context.Context) (ok bool) {
	s.mu.Lock()
	if s.state.Saving {
		s.mu.Unlock()
		return false
	}
	s.state.Saving = true
	s.state.Error = ""
	snap := saveSnapshot{
		ledger:          cloneLedger(s.state.ModifiedLogs),
		tasks:           models.CloneTasks(s.state.Tasks),
		deletedTaskIDs:  cloneStrings(s.state.DeletedTaskIDs),
		habits:          models.CloneHabits(s.state.HabitDefinitions),
		deletedHabitIDs: cloneStrings(s.state.DeletedHabitIDs),
		editSeq:         s.editSeq,
		generation:      s.generation,
	}
	for date := range snap.ledger {
		snap.dates = append(snap.dates, date)
	}
	sort.Strings(snap.dates)
	s.commit(ActionSaveStarted)

	ctx, span := tracer.Start(ctx, "store.save")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			ok = s.failSave(snap, "panic", fmt.Errorf("Save failed: %v", r))
		}
	}()

	// Habits.
	var habitInserts []models.HabitInsert
	var habitUpdates []models.HabitUpdate
	var habitTempIDs []string
	deletedHabits := toSet(snap.deletedHabitIDs)
	for _, h := range snap.habits {
		switch {
		case models.IsTempID(h.ID):
			habitTempIDs = append(habitTempIDs, h.ID)
			habitInserts = append(habitInserts, h.ToInsert())
		case !deletedHabits[h.ID]:
			habitUpdates = append(habitUpdates, h.ToUpdate())
		}
	}
	var insertedHabits []models.HabitDefinition
	err := s.phase(ctx, "store.save.habits", func(ctx context.Context) error {
		var err error
		insertedHabits, err = s.gw.SyncHabits(ctx, snap.deletedHabitIDs, habitInserts, habitUpdates)
		return err
	})
	if err != nil {
		return s.failSave(snap, "habits", err)
	}
	habitIDMap := positionalIDMap(habitTempIDs, habitIDs(insertedHabits))

	// Logs.
	entries := make([]models.DailyLog, 0, len(snap.dates))
	for _, date := range snap.dates {
		entry := snap.ledger[date].Clone()
		entry.Date = date
		entry.HabitsStatus = remapStatus(entry.HabitsStatus, habitIDMap, deletedHabits)
		entries = append(entries, entry)
	}
	if len(entries) > 0 {
		err = s.phase(ctx, "store.save.logs", func(ctx context.Context) error {
			return s.gw.SaveDailyLogsBulk(ctx, entries)
		})
		if err != nil {
			return s.failSave(snap, "logs", err)
		}
	}

	// Tasks.
	var taskInserts []models.TaskInsert
	var taskUpdates []models.TaskUpdate
	var taskTempIDs []string
	deletedTasks := toSet(snap.deletedTaskIDs)
	for _, t := range snap.tasks {
		switch {
		case models.IsTempID(t.ID):
			taskTempIDs = append(taskTempIDs, t.ID)
			taskInserts = append(taskInserts, t.ToInsert())
		case !deletedTasks[t.ID]:
			taskUpdates = append(taskUpdates, t.ToUpdate())
		}
	}
	var insertedTasks []models.Task
	err = s.phase(ctx, "store.save.tasks", func(ctx context.Context) error {
		var err error
		insertedTasks, err = s.gw.SyncTasks(ctx, snap.deletedTaskIDs, taskInserts, taskUpdates)
		return err
	})
	if err != nil {
		return s.failSave(snap, "tasks", err)
	}
	taskIDMap := positionalIDMap(taskTempIDs, taskIDs(insertedTasks))

	// Settings are read live so a change made during the save is not lost.
	s.mu.Lock()
	var settings *models.UserSettings
	if s.state.UserSettings != nil {
		us := *s.state.UserSettings
		settings = &us
	}
	s.mu.Unlock()
	if settings != nil {
		err = s.phase(ctx, "store.save.settings", func(ctx context.Context) error {
			return s.gw.UpsertUserSettings(ctx, settings.Input())
		})
		if err != nil {
			return s.failSave(snap, "settings", err)
		}
	}

	// Refresh.
	var history []models.DailyLog
	today := s.Today()
	err = s.phase(ctx, "store.save.refresh", func(ctx context.Context) error {
		var err error
		history, err = s.gw.GetDailyLogsLastNDays(ctx, RefreshWindowDays, today)
		return err
	})
	if err != nil {
		return s.failSave(snap, "refresh", err)
	}
	windows := reconcile.SliceWindows(reconcile.SortLogs(history))

	s.mu.Lock()
	if snap.generation != s.generation {
		s.mu.Unlock()
		s.logger.Info("store_save_discarded_after_reset")
		return false
	}
	s.applySave(snap, habitIDMap, insertedHabits, taskIDMap, insertedTasks, windows)
	pending := len(s.state.ModifiedLogs)
	s.commit(ActionSaveFinished)

	span.SetAttributes(
		attribute.Int("logs", len(entries)),
		attribute.Int("habits_inserted", len(insertedHabits)),
		attribute.Int("tasks_inserted", len(insertedTasks)),
	)
	s.logger.Info("store_save_finished",
		zap.Int("logs", len(entries)),
		zap.Int("habits_inserted", len(insertedHabits)),
		zap.Int("tasks_inserted", len(insertedTasks)),
		zap.Int("pending_logs", pending),
	)
	return true
}

// applySave must be called with s.mu held.
func (s *Store) applySave(
	snap saveSnapshot,
	habitIDMap map[string]string,
	insertedHabits []models.HabitDefinition,
	taskIDMap map[string]string,
	insertedTasks []models.Task,
	windows models.LogWindows,
) {
	st := &s.state

	habitRows := rowsByID(insertedHabits, func(h models.HabitDefinition) string { return h.ID })
	st.HabitDefinitions = remapRows(st.HabitDefinitions, habitIDMap, func(h *models.HabitDefinition) *string { return &h.ID })
	for i := range st.HabitDefinitions {
		if row, ok := habitRows[st.HabitDefinitions[i].ID]; ok {
			st.HabitDefinitions[i].UserID = row.UserID
		}
	}
	st.HabitDefinitions = reconcile.DedupeHabits(st.HabitDefinitions)

	taskRows := rowsByID(insertedTasks, func(t models.Task) string { return t.ID })
	st.Tasks = remapRows(st.Tasks, taskIDMap, func(t *models.Task) *string { return &t.ID })
	for i := range st.Tasks {
		if row, ok := taskRows[st.Tasks[i].ID]; ok {
			st.Tasks[i].UserID = row.UserID
		}
	}

	st.DeletedTaskIDs = without(st.DeletedTaskIDs, toSet(snap.deletedTaskIDs))
	st.DeletedHabitIDs = without(st.DeletedHabitIDs, toSet(snap.deletedHabitIDs))

	// Captured dates are cleared only if unchanged since the snapshot, so an
	// edit made to the same date during the save stays pending.
	for _, date := range snap.dates {
		live, ok := st.ModifiedLogs[date]
		if ok && reflect.DeepEqual(live.Clone(), snap.ledger[date]) {
			delete(st.ModifiedLogs, date)
		}
	}
	for date, entry := range st.ModifiedLogs {
		entry.HabitsStatus = remapStatus(entry.HabitsStatus, habitIDMap, nil)
		st.ModifiedLogs[date] = entry
	}
	st.DailyLog.HabitsStatus = remapStatus(st.DailyLog.HabitsStatus, habitIDMap, nil)

	st.LogWindows = windows
	st.Saving = false
	st.Error = ""
	st.UnsavedChanges = len(st.ModifiedLogs) > 0 ||
		len(st.DeletedTaskIDs) > 0 ||
		len(st.DeletedHabitIDs) > 0 ||
		s.editSeq != snap.editSeq ||
		st.hasPendingEntities()
}

func (s *Store) failSave(snap saveSnapshot, phase string, err error) bool {
	s.mu.Lock()
	if snap.generation != s.generation {
		s.mu.Unlock()
		return false
	}
	s.state.Saving = false
	s.state.Error = err.Error()
	s.commit(ActionSaveFailed)
	s.logger.Warn("store_save_failed", zap.String("phase", phase), zap.Error(err))
	return false
}

// phase runs fn in its own span and recovers a panicking gateway into an error.
func (s *Store) phase(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("Save failed: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
	return fn(ctx)
}

// positionalIDMap pairs the i-th temporary id with the i-th returned id.
func positionalIDMap(tempIDs, permIDs []string) map[string]string {
	out := make(map[string]string, len(tempIDs))
	for i, temp := range tempIDs {
		if i >= len(permIDs) {
			break
		}
		out[temp] = permIDs[i]
	}
	return out
}

// remapStatus rewrites temporary habit ids and drops ids listed in drop.
func remapStatus(status map[string]bool, idMap map[string]string, drop map[string]bool) map[string]bool {
	out := make(map[string]bool, len(status))
	for id, done := range status {
		if drop[id] {
			continue
		}
		if perm, ok := idMap[id]; ok {
			id = perm
		}
		out[id] = done
	}
	return out
}

func habitIDs(habits []models.HabitDefinition) []string {
	ids := make([]string, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}
	return ids
}

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// remapRows rewrites temporary ids through idMap. A load that ran during the
// save may already hold the server copy of a row inserted by it; that copy is
// dropped in favour of the local one, which keeps any edits made meanwhile.
func remapRows[T any](rows []T, idMap map[string]string, id func(*T) *string) []T {
	local := make(map[string]bool, len(idMap))
	for i := range rows {
		if perm, ok := idMap[*id(&rows[i])]; ok {
			local[perm] = true
		}
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		ref := id(&r)
		if perm, ok := idMap[*ref]; ok {
			*ref = perm
		} else if local[*ref] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func rowsByID[T any](rows []T, id func(T) string) map[string]T {
	out := make(map[string]T, len(rows))
	for _, r := range rows {
		out[id(r)] = r
	}
	return out
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func without(ids []string, drop map[string]bool) []string {
	var out []string
	for _, id := range ids {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}
