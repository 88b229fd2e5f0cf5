package taskgroup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Func is the work performed by one task firing. ctx is cancelled when the
// owning group is stopped.
type Func func(ctx context.Context) error

// Task is one periodic member of a group.
type Task struct {
	Name   string
	Period time.Duration
	Run    Func
}

// GroupStatus is a point-in-time view of one group.
type GroupStatus struct {
	Name    string       `json:"name"`
	Running bool         `json:"running"`
	Handles int          `json:"handles"`
	Tasks   []TaskStatus `json:"tasks"`
}

// TaskStatus holds per-task counters. Counters survive Stop/Start cycles.
type TaskStatus struct {
	Name      string    `json:"name"`
	PeriodMS  int64     `json:"period_ms"`
	Runs      uint64    `json:"runs"`
	Failures  uint64    `json:"failures"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

type group struct {
	name  string
	tasks []Task
	stats []taskStats

	// handles is the live timer set; empty means STOPPED.
	handles []Handle
	cancel  context.CancelFunc

	// kicking is set while Start runs the immediate pass; gen tells a
	// finishing Start whether a Stop (or a newer Start) superseded it.
	kicking bool
	gen     uint64
}

type taskStats struct {
	runs     uint64
	failures uint64
	lastRun  time.Time
	lastErr  string
}

// Option configures a Manager.
type Option func(*Manager)

// WithObserver sets the task failure observer. The default logs through the
// manager's logger.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Manager owns a fixed table of task groups. It is safe for concurrent use.
type Manager struct {
	sched    Scheduler
	observer Observer
	log      zerolog.Logger

	mu     sync.Mutex
	groups map[string]*group
}

// NewManager creates a Manager with an empty group table.
func NewManager(sched Scheduler, opts ...Option) *Manager {
	m := &Manager{
		sched:  sched,
		log:    log.Logger,
		groups: make(map[string]*group),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.observer == nil {
		m.observer = LogObserver{Logger: m.log}
	}
	return m
}

// DefineGroup registers a group with a fixed, ordered task list.
func (m *Manager) DefineGroup(name string, tasks ...Task) error {
	if name == "" {
		return fmt.Errorf("%w: empty group name", ErrConfiguration)
	}
	if len(tasks) == 0 {
		return fmt.Errorf("%w: group %q has no tasks", ErrConfiguration, name)
	}
	for i, t := range tasks {
		if t.Run == nil {
			return fmt.Errorf("%w: group %q task %d has no func", ErrConfiguration, name, i)
		}
		if t.Period <= 0 {
			return fmt.Errorf("%w: group %q task %d has non-positive period %s", ErrConfiguration, name, i, t.Period)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.groups[name]; exists {
		return fmt.Errorf("%w: group %q already defined", ErrConfiguration, name)
	}
	m.groups[name] = &group{
		name:    name,
		tasks:   append([]Task(nil), tasks...),
		stats:   make([]taskStats, len(tasks)),
		handles: []Handle{},
	}
	return nil
}

// Start runs every task of the group once, in order, then arms their timers.
// Starting a running group is a no-op.
func (m *Manager) Start(name string) error {
	m.mu.Lock()
	g, ok := m.groups[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	if g.active() {
		m.mu.Unlock()
		return nil
	}
	g.gen++
	gen := g.gen
	g.kicking = true
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	m.mu.Unlock()

	// Kick outside the lock so tasks may query or drive the manager.
	for i := range g.tasks {
		m.invoke(ctx, g, i)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !g.kicking || g.gen != gen {
		// Stopped while kicking.
		return nil
	}
	g.kicking = false
	for i := range g.tasks {
		idx := i
		g.handles = append(g.handles, m.sched.Every(g.tasks[i].Period, func() {
			// A tick already dispatched when Stop ran must not start the task.
			if ctx.Err() != nil {
				return
			}
			m.invoke(ctx, g, idx)
		}))
	}

	m.log.Debug().Str("group", name).Int("tasks", len(g.tasks)).Msg("Task group started")
	return nil
}

// Stop cancels every timer of the group. Stopping a stopped group is a no-op.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	m.stopLocked(g)
	return nil
}

// StopAll stops every running group.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, g := range m.groups {
		m.stopLocked(g)
	}
}

// IsRunning reports whether the group is running. Unknown groups are not.
func (m *Manager) IsRunning(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[name]
	return ok && g.active()
}

// Defined reports whether a group with this name exists.
func (m *Manager) Defined(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.groups[name]
	return ok
}

// Groups returns the status of every group, ordered by name.
func (m *Manager) Groups() []GroupStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]GroupStatus, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g.status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Status returns the status of a single group.
func (m *Manager) Status(name string) (GroupStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[name]
	if !ok {
		return GroupStatus{}, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	return g.status(), nil
}

// stopLocked cancels the group's timers and context. Caller holds mu.
func (m *Manager) stopLocked(g *group) {
	if !g.active() {
		return
	}
	for _, h := range g.handles {
		m.sched.Cancel(h)
	}
	g.handles = g.handles[:0]
	g.kicking = false
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	m.log.Debug().Str("group", g.name).Msg("Task group stopped")
}

// invoke runs one firing of task idx behind a recover boundary.
func (m *Manager) invoke(ctx context.Context, g *group, idx int) {
	t := g.tasks[idx]
	panicked, err := call(ctx, t.Run)

	// Failures caused by our own Stop are not worth reporting.
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		err = nil
	}

	m.mu.Lock()
	st := &g.stats[idx]
	st.runs++
	st.lastRun = time.Now()
	if err != nil {
		st.failures++
		st.lastErr = err.Error()
	}
	m.mu.Unlock()

	if err != nil {
		m.report(&TaskExecutionError{
			Group:    g.name,
			Task:     t.Name,
			Index:    idx,
			Err:      err,
			Panicked: panicked,
		})
	}
}

func (m *Manager) report(err *TaskExecutionError) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Interface("panic", r).Str("group", err.Group).Msg("Observer panicked")
		}
	}()
	m.observer.TaskFailed(err)
}

func call(ctx context.Context, fn Func) (panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return false, fn(ctx)
}

func (g *group) active() bool {
	return g.kicking || len(g.handles) > 0
}

func (g *group) status() GroupStatus {
	st := GroupStatus{
		Name:    g.name,
		Running: g.active(),
		Handles: len(g.handles),
		Tasks:   make([]TaskStatus, len(g.tasks)),
	}
	for i, t := range g.tasks {
		s := g.stats[i]
		st.Tasks[i] = TaskStatus{
			Name:      t.Name,
			PeriodMS:  t.Period.Milliseconds(),
			Runs:      s.runs,
			Failures:  s.failures,
			LastError: s.lastErr,
		}
		if !s.lastRun.IsZero() {
			lastRun := s.lastRun
			st.Tasks[i].LastRun = &lastRun
		}
	}
	return st
}
