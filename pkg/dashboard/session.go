package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/urmzd/growbox/pkg/taskgroup"
)

var (
	// ErrUnknownTab indicates a tab the dashboard does not have
	ErrUnknownTab = errors.New("unknown tab")

	// ErrUnknownToggle indicates a toggle the dashboard does not have
	ErrUnknownToggle = errors.New("unknown toggle")
)

// Tabs
const (
	TabEnvironment = "environment"
	TabZigbee      = "zigbee"
	TabHealth      = "health"
	TabSettings    = "settings"
)

// Toggles
const (
	ToggleStream = "stream"
)

// Tabs lists every tab in display order.
var Tabs = []string{TabEnvironment, TabZigbee, TabHealth, TabSettings}

// Toggles lists every feature toggle.
var Toggles = []string{ToggleStream}

// Refresh periods
const (
	EnvironmentPeriod = 3 * time.Second
	ZigbeePeriod      = 3 * time.Second
	HealthPeriod      = 5 * time.Second
	SettingsPeriod    = 10 * time.Second
	StreamPeriod      = time.Second
)

// DefaultCPUAlert is the board temperature above which the CPU panel alerts.
const DefaultCPUAlert = 80.0

// Fetcher is the data source of the dashboard tasks.
type Fetcher interface {
	Latest(ctx context.Context) ([]float64, error)
	History(ctx context.Context, span Span) ([][]float64, error)
	Devices(ctx context.Context) ([]json.RawMessage, error)
	ZigbeeState(ctx context.Context) (json.RawMessage, error)
	CPUTemperature(ctx context.Context) (float64, error)
	FridgeState(ctx context.Context) (bool, error)
	HealthErrors(ctx context.Context) (HealthLists, error)
	Settings(ctx context.Context) (json.RawMessage, error)
	Snapshot(ctx context.Context, now time.Time) ([]byte, error)
}

// Still is the camera panel content.
type Still struct {
	TakenAt time.Time `json:"taken_at"`
	Image   []byte    `json:"image"`
}

// State is the session's selection state.
type State struct {
	Tab     string          `json:"tab"`
	Span    Span            `json:"span"`
	Toggles map[string]bool `json:"toggles"`
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithCPUAlert sets the CPU alert threshold in °C.
func WithCPUAlert(c float64) SessionOption {
	return func(s *Session) { s.cpuAlert = c }
}

// WithSessionClock overrides time.Now for camera still requests.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// Session binds dashboard tabs and toggles to task groups. Exactly one tab
// group runs at a time; toggle groups run independently of the tab.
type Session struct {
	mgr   *taskgroup.Manager
	fetch Fetcher
	view  *View

	cpuAlert float64
	now      func() time.Time

	// ctl serializes tab and toggle switches; mu guards the fields below
	// and is never held while a group starts.
	ctl     sync.Mutex
	mu      sync.Mutex
	tab     string
	span    Span
	toggles map[string]bool
}

// NewSession defines the dashboard groups on mgr. mgr must not already
// define groups with the tab or toggle names.
func NewSession(mgr *taskgroup.Manager, fetch Fetcher, view *View, opts ...SessionOption) (*Session, error) {
	s := &Session{
		mgr:      mgr,
		fetch:    fetch,
		view:     view,
		cpuAlert: DefaultCPUAlert,
		now:      time.Now,
		span:     Span1h,
		toggles:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	groups := []struct {
		name  string
		tasks []taskgroup.Task
	}{
		{TabEnvironment, []taskgroup.Task{
			{Name: "latest", Period: EnvironmentPeriod, Run: s.refreshLatest},
			{Name: "history", Period: EnvironmentPeriod, Run: s.refreshHistory},
			{Name: "fridge", Period: EnvironmentPeriod, Run: s.refreshFridge},
			{Name: "cpu", Period: EnvironmentPeriod, Run: s.refreshCPU},
		}},
		{TabZigbee, []taskgroup.Task{
			{Name: "devices", Period: ZigbeePeriod, Run: s.refreshDevices},
			{Name: "state", Period: ZigbeePeriod, Run: s.refreshZigbeeState},
		}},
		{TabHealth, []taskgroup.Task{
			{Name: "errors", Period: HealthPeriod, Run: s.refreshHealth},
		}},
		{TabSettings, []taskgroup.Task{
			{Name: "settings", Period: SettingsPeriod, Run: s.refreshSettings},
		}},
		{ToggleStream, []taskgroup.Task{
			{Name: "still", Period: StreamPeriod, Run: s.refreshCamera},
		}},
	}
	for _, g := range groups {
		if err := mgr.DefineGroup(g.name, g.tasks...); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// View returns the session's display surface.
func (s *Session) View() *View {
	return s.view
}

// SelectTab makes tab the active tab: the previous tab's group stops and
// the new one starts. Selecting the active tab again changes nothing.
func (s *Session) SelectTab(tab string) error {
	if !contains(Tabs, tab) {
		return fmt.Errorf("%w: %s", ErrUnknownTab, tab)
	}

	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	prev := s.tab
	s.tab = tab
	s.mu.Unlock()

	if prev != "" && prev != tab {
		if err := s.mgr.Stop(prev); err != nil {
			return err
		}
	}
	return s.mgr.Start(tab)
}

// SetToggle switches a feature toggle on or off.
func (s *Session) SetToggle(name string, on bool) error {
	if !contains(Toggles, name) {
		return fmt.Errorf("%w: %s", ErrUnknownToggle, name)
	}

	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	s.toggles[name] = on
	s.mu.Unlock()

	if on {
		return s.mgr.Start(name)
	}
	return s.mgr.Stop(name)
}

// SetSpan changes the history span. When the environment tab is showing,
// the history panel is refreshed immediately instead of at the next tick.
func (s *Session) SetSpan(ctx context.Context, span Span) error {
	if span.Duration() == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidSpan, span)
	}

	s.mu.Lock()
	s.span = span
	s.mu.Unlock()

	if s.mgr.IsRunning(TabEnvironment) {
		return s.refreshHistory(ctx)
	}
	return nil
}

// Groups returns the status of the session's task groups.
func (s *Session) Groups() []taskgroup.GroupStatus {
	return s.mgr.Groups()
}

// ActiveTab returns the selected tab, or "" before the first selection.
func (s *Session) ActiveTab() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// Span returns the history span.
func (s *Session) Span() Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.span
}

// Toggles returns the names of toggles that are on, sorted.
func (s *Session) Toggles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	on := []string{}
	for name, v := range s.toggles {
		if v {
			on = append(on, name)
		}
	}
	sort.Strings(on)
	return on
}

// State returns the selection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	toggles := make(map[string]bool, len(Toggles))
	for _, name := range Toggles {
		toggles[name] = s.toggles[name]
	}
	return State{Tab: s.tab, Span: s.span, Toggles: toggles}
}

// Close stops every group. The session may be used again afterwards.
func (s *Session) Close() {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mgr.StopAll()

	s.mu.Lock()
	s.tab = ""
	s.toggles = make(map[string]bool)
	s.mu.Unlock()
}

func (s *Session) refreshLatest(ctx context.Context) error {
	row, err := s.fetch.Latest(ctx)
	if err != nil {
		s.view.SetError(PanelLatest, err)
		return err
	}
	s.view.Set(PanelLatest, row)
	return nil
}

func (s *Session) refreshHistory(ctx context.Context) error {
	rows, err := s.fetch.History(ctx, s.Span())
	if err != nil {
		s.view.SetError(PanelHistory, err)
		return err
	}
	s.view.Set(PanelHistory, rows)
	return nil
}

func (s *Session) refreshFridge(ctx context.Context) error {
	on, err := s.fetch.FridgeState(ctx)
	if err != nil {
		s.view.SetError(PanelFridge, err)
		return err
	}
	s.view.Set(PanelFridge, on)
	return nil
}

func (s *Session) refreshCPU(ctx context.Context) error {
	c, err := s.fetch.CPUTemperature(ctx)
	if err != nil {
		s.view.SetError(PanelCPU, err)
		return err
	}
	if c > s.cpuAlert {
		s.view.SetAlert(PanelCPU, c, fmt.Sprintf("CPU temperature %.1f°C is above %.0f°C", c, s.cpuAlert))
		return nil
	}
	s.view.Set(PanelCPU, c)
	return nil
}

func (s *Session) refreshDevices(ctx context.Context) error {
	devices, err := s.fetch.Devices(ctx)
	if err != nil {
		s.view.SetError(PanelDevices, err)
		return err
	}
	s.view.Set(PanelDevices, devices)
	return nil
}

func (s *Session) refreshZigbeeState(ctx context.Context) error {
	state, err := s.fetch.ZigbeeState(ctx)
	if err != nil {
		s.view.SetError(PanelZigbeeState, err)
		return err
	}
	s.view.Set(PanelZigbeeState, state)
	return nil
}

func (s *Session) refreshHealth(ctx context.Context) error {
	lists, err := s.fetch.HealthErrors(ctx)
	if err != nil {
		s.view.SetError(PanelHealthErrors, err)
		return err
	}
	s.view.Set(PanelHealthErrors, lists)
	return nil
}

func (s *Session) refreshSettings(ctx context.Context) error {
	doc, err := s.fetch.Settings(ctx)
	if err != nil {
		s.view.SetError(PanelSettings, err)
		return err
	}
	s.view.Set(PanelSettings, doc)
	return nil
}

func (s *Session) refreshCamera(ctx context.Context) error {
	now := s.now()
	img, err := s.fetch.Snapshot(ctx, now)
	if err != nil {
		s.view.SetError(PanelCamera, err)
		return err
	}
	s.view.Set(PanelCamera, Still{TakenAt: now, Image: img})
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
