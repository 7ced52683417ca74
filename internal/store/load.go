package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/reconcile"
)

// LoadInitialData fetches the dashboard for the selected date and reconciles
// it with local state. Pending local work survives only when the store was
// initialized and had unsaved changes. A load already in flight makes this a no-op.
func (s *Store) LoadInitialData(ctx context.Context) {
	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return
	}
	s.ensureSelectedDate()
	s.state.Loading = true
	s.state.Error = ""
	s.loadRequestID++
	requestID := s.loadRequestID
	date := s.state.SelectedDate
	s.commit(ActionLoadStarted)

	ctx, span := tracer.Start(ctx, "store.load")
	defer span.End()

	data, err := s.fetchDashboard(ctx, date)
	if err != nil {
		span.RecordError(err)
	}

	s.mu.Lock()
	if requestID != s.loadRequestID {
		s.mu.Unlock()
		s.logger.Debug("store_load_superseded", zap.String("date", date))
		return
	}
	s.applyDashboard(date, data, err)
	s.commit(ActionLoadFinished)

	if err != nil {
		s.logger.Warn("store_load_failed", zap.String("date", date), zap.Error(err))
		return
	}
	s.logger.Debug("store_load_finished", zap.String("date", date))
}

func (s *Store) fetchDashboard(ctx context.Context, date string) (data *models.DashboardData, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("Failed to load: %v", r)
		}
	}()
	return s.gw.FetchFullDashboardData(ctx, date)
}

// applyDashboard must be called with s.mu held.
func (s *Store) applyDashboard(date string, data *models.DashboardData, fetchErr error) {
	st := &s.state
	hasUnsaved := st.UnsavedChanges && st.IsInitialized
	keepLocalHabits := st.IsInitialized && len(st.HabitDefinitions) > 0

	st.Loading = false
	st.IsInitialized = true
	st.Error = ""
	if fetchErr != nil {
		st.Error = fetchErr.Error()
	}
	if data == nil {
		// Nothing came back; local state stays as it was.
		return
	}

	serverHabits := reconcile.DedupeHabits(data.HabitDefinitions)
	var habits []models.HabitDefinition
	switch {
	case len(serverHabits) > 0:
		habits = serverHabits
		if hasUnsaved {
			names := reconcile.HabitNames(serverHabits)
			for _, h := range st.HabitDefinitions {
				if !models.IsTempID(h.ID) {
					continue
				}
				if _, taken := names[strings.ToLower(h.Name)]; taken {
					continue
				}
				habits = append(habits, h)
			}
			habits = reconcile.DedupeHabits(habits)
		}
	case keepLocalHabits:
		habits = reconcile.DedupeHabits(st.HabitDefinitions)
	default:
		habits = s.defaultHabits()
	}

	settings := data.UserSettings
	if settings == nil {
		defaults := models.DefaultUserSettings()
		settings = &defaults
	}

	needsDefaults := data.UserSettings == nil
	for _, h := range habits {
		if models.IsTempID(h.ID) {
			needsDefaults = true
			break
		}
	}

	if st.SelectedDate == date {
		serverLog := models.EmptyDailyLog(date)
		if data.DailyLog != nil {
			serverLog = data.DailyLog.Clone()
			serverLog.Date = date
		}
		if local, ok := st.ModifiedLogs[date]; hasUnsaved && ok {
			st.DailyLog = local.Clone()
		} else {
			st.DailyLog = serverLog
		}
	}

	tasks := models.CloneTasks(data.Tasks)
	if hasUnsaved {
		for _, t := range st.Tasks {
			if models.IsTempID(t.ID) {
				tasks = append(tasks, t)
			}
		}
	}

	if !hasUnsaved {
		st.DeletedTaskIDs = nil
		st.DeletedHabitIDs = nil
		st.ModifiedLogs = map[string]models.DailyLog{}
	}

	st.HabitDefinitions = habits
	st.Tasks = tasks
	st.UserSettings = settings
	st.LogWindows = models.LogWindows{
		Last7:   models.CloneLogs(data.Last7),
		Last28:  models.CloneLogs(data.Last28),
		Last91:  models.CloneLogs(data.Last91),
		Last180: models.CloneLogs(data.Last180),
		Last365: models.CloneLogs(data.Last365),
	}
	st.UnsavedChanges = hasUnsaved || needsDefaults
}

func (s *Store) defaultHabits() []models.HabitDefinition {
	now := s.now()
	dumbbell := "Dumbbell"
	languages := "Languages"
	return []models.HabitDefinition{
		{ID: s.newID(), Name: "Exercise", Icon: &dumbbell, CreatedAt: now},
		{ID: s.newID(), Name: "English", Icon: &languages, CreatedAt: now},
	}
}

// SetSelectedDate switches the visible log to date. Local edits win, then the
// cached windows, then a fetch through the gateway. A fetch that completes
// after a newer navigation is discarded.
func (s *Store) SetSelectedDate(ctx context.Context, date string) {
	token, fetch := s.selectDate(date)
	if !fetch {
		return
	}

	fetched, err := s.fetchLog(ctx, date)
	if err != nil {
		s.logger.Debug("store_date_fetch_failed", zap.String("date", date), zap.Error(err))
		return
	}

	s.mu.Lock()
	if token != s.dateRequestID || s.state.SelectedDate != date {
		s.mu.Unlock()
		s.logger.Debug("store_date_fetch_stale", zap.String("date", date))
		return
	}
	if _, edited := s.state.ModifiedLogs[date]; edited {
		s.mu.Unlock()
		return
	}
	next := models.EmptyDailyLog(date)
	if fetched != nil {
		next = fetched.Clone()
		next.Date = date
	}
	s.state.DailyLog = next
	s.commit(ActionDateLoaded)
}

// SelectDateOffline switches the visible log like SetSelectedDate but never
// calls the gateway. A date with no local data shows an empty log.
func (s *Store) SelectDateOffline(date string) {
	s.selectDate(date)
}

// selectDate resolves date from local state and commits. It reports whether
// the log still has to be fetched, with the token that fetch must match.
func (s *Store) selectDate(date string) (token uint64, fetch bool) {
	s.mu.Lock()
	s.state.SelectedDate = date
	s.dateRequestID++
	token = s.dateRequestID

	if !s.state.IsInitialized || date == s.state.DailyLog.Date {
		s.commit(ActionSetSelectedDate)
		return token, false
	}
	if local, ok := s.state.ModifiedLogs[date]; ok {
		s.state.DailyLog = local.Clone()
		s.commit(ActionSetSelectedDate)
		return token, false
	}
	if cached, ok := s.state.cachedLog(date); ok {
		s.state.DailyLog = cached.Clone()
		s.state.DailyLog.Date = date
		s.commit(ActionSetSelectedDate)
		return token, false
	}
	s.state.DailyLog = models.EmptyDailyLog(date)
	s.commit(ActionSetSelectedDate)
	return token, true
}

func (s *Store) fetchLog(ctx context.Context, date string) (log *models.DailyLog, err error) {
	defer func() {
		if r := recover(); r != nil {
			log = nil
			err = fmt.Errorf("failed to fetch log: %v", r)
		}
	}()
	return s.gw.GetLogForDate(ctx, date)
}
