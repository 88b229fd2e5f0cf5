package taskgroup

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerScheduler_FiresAndCancels(t *testing.T) {
	s := NewTickerScheduler()
	var n atomic.Int32

	h := s.Every(5*time.Millisecond, func() { n.Add(1) })
	if h == 0 {
		t.Fatal("expected non-zero handle")
	}

	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n.Load() < 3 {
		t.Fatalf("expected at least 3 firings, got %d", n.Load())
	}

	s.Cancel(h)
	s.Wait()
	after := n.Load()
	time.Sleep(30 * time.Millisecond)
	if got := n.Load(); got != after {
		t.Errorf("expected no firings after cancel, got %d more", got-after)
	}
	if s.Live() != 0 {
		t.Errorf("expected 0 live timers, got %d", s.Live())
	}
}

func TestTickerScheduler_CancelUnknown(t *testing.T) {
	s := NewTickerScheduler()
	s.Cancel(42)
	h := s.Every(time.Hour, func() {})
	s.Cancel(h)
	s.Cancel(h)
	s.Wait()
}

func TestManager_WithTickerScheduler(t *testing.T) {
	sched := NewTickerScheduler()
	m := NewManager(sched)
	var n atomic.Int32
	_ = m.DefineGroup("stream", Task{Period: 5 * time.Millisecond, Run: func(context.Context) error {
		n.Add(1)
		return nil
	}})

	_ = m.Start("stream")
	_ = m.Start("stream")
	if sched.Live() != 1 {
		t.Errorf("expected 1 live timer, got %d", sched.Live())
	}

	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	m.StopAll()
	sched.Wait()
	after := n.Load()
	time.Sleep(20 * time.Millisecond)
	if got := n.Load(); got != after {
		t.Errorf("expected no firings after StopAll, got %d more", got-after)
	}
}

func TestManualScheduler_OrderAndTies(t *testing.T) {
	s := NewManualScheduler()
	var order []string
	s.Every(2*time.Second, func() { order = append(order, "slow") })
	s.Every(time.Second, func() { order = append(order, "fast") })

	s.Advance(4 * time.Second)

	want := []string{"fast", "slow", "fast", "fast", "slow", "fast"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("firing %d: expected %s, got %s", i, want[i], order[i])
		}
	}
	if s.Now() != 4*time.Second {
		t.Errorf("expected virtual time 4s, got %s", s.Now())
	}
}

func TestManualScheduler_CancelFromCallback(t *testing.T) {
	s := NewManualScheduler()
	var a, b int
	var hb Handle
	s.Every(time.Second, func() {
		a++
		s.Cancel(hb)
	})
	hb = s.Every(time.Second, func() { b++ })

	s.Advance(3 * time.Second)
	if a != 3 || b != 0 {
		t.Errorf("expected a=3 b=0, got a=%d b=%d", a, b)
	}
}
