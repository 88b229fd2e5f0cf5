package taskgroup

import (
	"sync"
	"time"
)

// ManualScheduler keeps virtual time that only moves when Advance is called.
// Timers fire synchronously inside Advance, in due-time order, with ties
// broken by arm order. A timer armed at t with period p fires at t+p, t+2p, ...
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    Handle
	timers map[Handle]*manualTimer
}

type manualTimer struct {
	period time.Duration
	next   time.Duration
	fn     func()
}

// NewManualScheduler creates a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{timers: make(map[Handle]*manualTimer)}
}

// Every implements Scheduler.
func (s *ManualScheduler) Every(period time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.timers[s.seq] = &manualTimer{period: period, next: s.now + period, fn: fn}
	return s.seq
}

// Cancel implements Scheduler.
func (s *ManualScheduler) Cancel(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, h)
}

// Advance moves virtual time forward by d, firing every timer that comes due.
// Callbacks run without the scheduler lock held, so they may arm or cancel
// timers themselves.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		t := s.due(target)
		if t == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = t.next
		t.next += t.period
		fn := t.fn
		s.mu.Unlock()

		fn()
	}
}

// due returns the earliest timer due at or before target. Caller holds mu.
func (s *ManualScheduler) due(target time.Duration) *manualTimer {
	var (
		bestH Handle
		best  *manualTimer
	)
	for h, t := range s.timers {
		if t.next > target {
			continue
		}
		if best == nil || t.next < best.next || (t.next == best.next && h < bestH) {
			bestH, best = h, t
		}
	}
	return best
}

// Now returns the virtual time elapsed since creation.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Live returns the number of armed timers.
func (s *ManualScheduler) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
