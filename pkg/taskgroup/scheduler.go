package taskgroup

import (
	"sync"
	"time"
)

// Handle identifies one armed periodic timer. The zero Handle is never
// returned by a Scheduler.
type Handle uint64

// Scheduler is the repeat-timer primitive the Manager arms tasks on.
type Scheduler interface {
	// Every arms fn to run every period, first firing one period from now.
	Every(period time.Duration, fn func()) Handle

	// Cancel disarms h. No new firing of h is dispatched after Cancel
	// returns; a firing already dispatched may still run to completion.
	// Cancelling an unknown or already cancelled handle is a no-op.
	Cancel(h Handle)
}

// TickerScheduler runs each timer on its own goroutine driven by a
// time.Ticker. It is safe for concurrent use.
type TickerScheduler struct {
	mu     sync.Mutex
	seq    Handle
	timers map[Handle]*tickerTimer
	wg     sync.WaitGroup
}

type tickerTimer struct {
	ticker *time.Ticker
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
}

// NewTickerScheduler creates a wall-clock scheduler.
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{timers: make(map[Handle]*tickerTimer)}
}

// Every implements Scheduler.
func (s *TickerScheduler) Every(period time.Duration, fn func()) Handle {
	t := &tickerTimer{
		ticker: time.NewTicker(period),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.seq++
	h := s.seq
	s.timers[h] = t
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer t.ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				// done and C can be ready together; the flag decides.
				if !t.live() {
					return
				}
				fn()
			}
		}
	}()

	return h
}

// Cancel implements Scheduler.
func (s *TickerScheduler) Cancel(h Handle) {
	s.mu.Lock()
	t, ok := s.timers[h]
	delete(s.timers, h)
	s.mu.Unlock()
	if !ok {
		return
	}

	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	close(t.done)
}

// Live returns the number of armed timers.
func (s *TickerScheduler) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Wait blocks until every cancelled timer goroutine has exited.
// It must only be called once all handles are cancelled.
func (s *TickerScheduler) Wait() {
	s.wg.Wait()
}

func (t *tickerTimer) live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped
}
