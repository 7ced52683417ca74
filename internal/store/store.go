// Package store holds the client-side tracker state, the pending-edit ledger,
// and the load and save reconciliation against a gateway.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/duongtruongbinh/life-os/internal/gateway"
	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/reconcile"
)

// PersistKey is the cache key the durable part of the state is stored under.
const PersistKey = "life-os-store"

var tracer = otel.Tracer("github.com/duongtruongbinh/life-os/internal/store")

// Persister stores the durable part of the state between runs.
type Persister interface {
	// Get decodes the value stored under key into v. It reports false when nothing is stored.
	Get(key string, v any) (bool, error)
	Put(key string, v any) error
}

// Store is the single source of truth for one signed-in user on one device.
// All methods are safe for concurrent use.
type Store struct {
	gw        gateway.Gateway
	logger    *zap.Logger
	persister Persister
	now       func() time.Time
	loc       *time.Location
	newID     func() string
	scheduler *Scheduler

	mu            sync.Mutex
	state         State
	version       uint64
	editSeq       uint64
	loadRequestID uint64
	dateRequestID uint64
	generation    uint64

	persistMu        sync.Mutex
	persistedVersion uint64

	subMu       sync.Mutex
	subscribers map[int]func(Action, State)
	nextSubID   int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPersister enables durable state. Without one the store is memory-only.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithClock overrides the time source and the location used to derive date keys.
func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithSavePolicy controls the auto-save triggered by habit and task toggles.
func WithSavePolicy(p SavePolicy) Option {
	return func(s *Store) { s.scheduler.SetPolicy(p) }
}

// WithIDGenerator overrides the temporary id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New creates a store backed by gw.
func New(gw gateway.Gateway, opts ...Option) *Store {
	s := &Store{
		gw:          gw,
		logger:      zap.NewNop(),
		now:         time.Now,
		loc:         time.Local,
		newID:       models.NewTempID,
		state:       initialState(),
		subscribers: make(map[int]func(Action, State)),
	}
	s.scheduler = NewScheduler(DebouncePolicy(DefaultAutoSaveDelay), s.autoSave)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close stops any pending auto-save.
func (s *Store) Close() {
	s.scheduler.Stop()
}

// Scheduler exposes the auto-save scheduler.
func (s *Store) Scheduler() *Scheduler {
	return s.scheduler
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn to be called after every state change. The returned
// function removes the subscription. fn must not modify the state it receives.
func (s *Store) Subscribe(fn func(Action, State)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

// Today returns the current date key in the store's location.
func (s *Store) Today() string {
	return reconcile.DateKeyIn(s.now(), s.loc)
}

// MergedLogs overlays the pending ledger on the cached yearly window.
func (s *Store) MergedLogs() []models.DailyLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reconcile.MergeLogs(s.state.Last365, s.state.ModifiedLogs)
}

// Streak returns the current streak of habitID over the merged history.
func (s *Store) Streak(habitID string) int {
	return reconcile.CurrentStreak(habitID, s.MergedLogs(), s.Today())
}

// Hydrate loads the durable state from the persister, if any. Transient
// fields start from their zero values and habits are deduplicated.
func (s *Store) Hydrate() error {
	if s.persister == nil {
		return nil
	}

	var st State
	found, err := s.persister.Get(PersistKey, &st)
	if err != nil {
		return fmt.Errorf("failed to read persisted state: %w", err)
	}
	if !found {
		return nil
	}

	st.Loading = false
	st.Saving = false
	st.Error = ""
	st.HabitDefinitions = reconcile.DedupeHabits(st.HabitDefinitions)
	if st.ModifiedLogs == nil {
		st.ModifiedLogs = map[string]models.DailyLog{}
	}
	if st.DailyLog.HabitsStatus == nil {
		st.DailyLog.HabitsStatus = map[string]bool{}
	}

	s.mu.Lock()
	s.state = st
	s.commit(ActionHydrate)

	s.logger.Debug("store_hydrated",
		zap.String("selected_date", st.SelectedDate),
		zap.Int("pending_logs", len(st.ModifiedLogs)),
		zap.Bool("unsaved_changes", st.UnsavedChanges),
	)
	return nil
}

// Reset returns the store to its initial state and abandons in-flight loads.
func (s *Store) Reset() {
	s.scheduler.Cancel()
	s.mu.Lock()
	s.state = initialState()
	s.loadRequestID++
	s.dateRequestID++
	s.editSeq++
	s.generation++
	s.commit(ActionReset)
}

// SetError replaces the user-visible error message.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.state.Error = msg
	s.commit(ActionSetError)
}

// commit must be called with s.mu held. It releases the lock, then persists
// and notifies with a snapshot of the state.
func (s *Store) commit(action Action) {
	s.version++
	v := s.version
	snap := s.state.Clone()
	s.mu.Unlock()

	s.persist(v, snap)
	s.notify(action, snap)
}

// persist writes snap unless a newer version has already been written.
func (s *Store) persist(v uint64, snap State) {
	if s.persister == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if v <= s.persistedVersion {
		return
	}
	if err := s.persister.Put(PersistKey, snap); err != nil {
		s.logger.Warn("store_persist_failed", zap.Error(err))
		return
	}
	s.persistedVersion = v
}

func (s *Store) notify(action Action, snap State) {
	s.subMu.Lock()
	fns := make([]func(Action, State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(action, snap)
	}
}

// autoSave runs from the scheduler. A save already in flight pushes the
// attempt back by one more delay.
func (s *Store) autoSave() {
	s.mu.Lock()
	saving := s.state.Saving
	s.mu.Unlock()
	if saving {
		s.scheduler.Schedule()
		return
	}
	if !s.SaveData(context.Background()) {
		s.logger.Debug("store_auto_save_skipped")
	}
}

func (s *Store) ensureSelectedDate() {
	if s.state.SelectedDate != "" {
		return
	}
	today := reconcile.DateKeyIn(s.now(), s.loc)
	s.state.SelectedDate = today
	if s.state.DailyLog.Date == "" {
		s.state.DailyLog = models.EmptyDailyLog(today)
	}
}
