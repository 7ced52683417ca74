package store

import (
	"sync"
	"time"
)

// DefaultAutoSaveDelay is the debounce applied after a habit or task toggle.
const DefaultAutoSaveDelay = 2 * time.Second

// SavePolicy decides whether and when a requested auto-save runs.
type SavePolicy interface {
	// Delay returns how long to wait before saving. ok is false when auto-save is disabled.
	Delay() (d time.Duration, ok bool)
}

type debouncePolicy time.Duration

func (p debouncePolicy) Delay() (time.Duration, bool) { return time.Duration(p), true }

type neverPolicy struct{}

func (neverPolicy) Delay() (time.Duration, bool) { return 0, false }

// DebouncePolicy saves once d has passed without another request.
func DebouncePolicy(d time.Duration) SavePolicy {
	return debouncePolicy(d)
}

// NeverPolicy disables auto-save. Saves only happen when requested explicitly.
func NeverPolicy() SavePolicy {
	return neverPolicy{}
}

// Scheduler holds at most one pending auto-save. Each Schedule call replaces
// the pending one, so a burst of requests produces a single save.
type Scheduler struct {
	mu      sync.Mutex
	policy  SavePolicy
	run     func()
	timer   *time.Timer
	stopped bool
}

// NewScheduler creates a scheduler that calls run according to policy.
func NewScheduler(policy SavePolicy, run func()) *Scheduler {
	if policy == nil {
		policy = NeverPolicy()
	}
	return &Scheduler{policy: policy, run: run}
}

// SetPolicy replaces the policy. A pending save is cancelled.
func (s *Scheduler) SetPolicy(p SavePolicy) {
	if p == nil {
		p = NeverPolicy()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimer()
	s.policy = p
}

// Schedule requests a save. It reports whether a save is now pending.
func (s *Scheduler) Schedule() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	d, ok := s.policy.Delay()
	if !ok {
		return false
	}
	s.stopTimer()

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.timer != t || s.stopped {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		s.run()
	})
	s.timer = t
	return true
}

// Pending reports whether a save is scheduled and has not fired yet.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Cancel drops the pending save, if any.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimer()
}

// Stop cancels the pending save and rejects future requests.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimer()
	s.stopped = true
}

func (s *Scheduler) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
