package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/growbox/pkg/device"
	"github.com/urmzd/growbox/pkg/sensor"
	"github.com/urmzd/growbox/pkg/settings"
	"github.com/urmzd/growbox/pkg/taskgroup"
)

// Readings exposes the sampler's most recent results.
type Readings interface {
	Last() (sensor.Reading, bool)
	LastValid() (sensor.Sample, bool)
}

// Devices is the part of the zigbee roster the monitor checks.
type Devices interface {
	IsConnected() bool
	ListDevices(ctx context.Context) ([]device.Device, error)
}

// IssueStore records raised and resolved conditions.
type IssueStore interface {
	Raise(ctx context.Context, code int, severity, message string) (bool, error)
	Resolve(ctx context.Context, code int) (bool, error)
}

// Config holds the monitor thresholds.
type Config struct {
	Interval       time.Duration
	StaleAfter     time.Duration
	FrozenLimit    int
	OverheatC      float64
	OverheatMargin float64
}

// Condition is one failing check.
type Condition struct {
	Code     Code   `json:"code"`
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Report is the result of one Check.
type Report struct {
	Healthy    bool        `json:"healthy"`
	Overheated bool        `json:"overheated"`
	CheckedAt  time.Time   `json:"checked_at"`
	Conditions []Condition `json:"conditions"`
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithSettings supplies the temperature targets used for box overheat
// detection. Without it only the board temperature is checked.
func WithSettings(fn func(ctx context.Context) (settings.Settings, error)) Option {
	return func(m *Monitor) { m.settings = fn }
}

// WithCPUTemperature supplies the board temperature reader.
func WithCPUTemperature(fn func() (float64, error)) Option {
	return func(m *Monitor) { m.cpu = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithLocation sets the zone the light schedule is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(m *Monitor) { m.loc = loc }
}

// Monitor evaluates health conditions. It is safe for concurrent use.
type Monitor struct {
	cfg      Config
	readings Readings
	devices  Devices
	issues   IssueStore
	settings func(ctx context.Context) (settings.Settings, error)
	cpu      func() (float64, error)
	now      func() time.Time
	loc      *time.Location

	mu         sync.Mutex
	prevTemp   float64
	hasPrev    bool
	frozen     int
	overheated bool
	last       Report
}

// NewMonitor creates a monitor.
func NewMonitor(cfg Config, readings Readings, devices Devices, issues IssueStore, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:      cfg,
		readings: readings,
		devices:  devices,
		issues:   issues,
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Task returns the periodic check task.
func (m *Monitor) Task() taskgroup.Task {
	return taskgroup.Task{
		Name:   "check",
		Period: m.cfg.Interval,
		Run: func(ctx context.Context) error {
			_, err := m.Check(ctx)
			return err
		},
	}
}

// Check evaluates every condition, raises issues for failing ones and
// resolves the rest.
func (m *Monitor) Check(ctx context.Context) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	failing := make(map[Code]string)

	last, hasLast := m.readings.Last()
	valid, hasValid := m.readings.LastValid()

	if hasLast && errors.Is(last.Err, sensor.ErrInvalidSample) {
		failing[CodeTemperatureInvalid] = last.Err.Error()
	}

	if !hasValid {
		failing[CodeTimestampMissing] = "no sensor sample recorded yet"
	} else if age := now.Sub(valid.TakenAt); age > m.cfg.StaleAfter {
		failing[CodeSensorStale] = fmt.Sprintf("sensor data not updated for %s", age.Truncate(time.Second))
	}

	if !m.devices.IsConnected() {
		failing[CodeZigbeeUnhealthy] = "zigbee2mqtt data unavailable"
	} else if _, err := m.devices.ListDevices(ctx); err != nil {
		failing[CodeZigbeeUnhealthy] = err.Error()
	}

	if hasValid {
		if m.hasPrev && valid.Temperature == m.prevTemp {
			m.frozen++
		} else {
			m.frozen = 0
			m.prevTemp = valid.Temperature
			m.hasPrev = true
		}
		if m.frozen > m.cfg.FrozenLimit {
			failing[CodeTemperatureFrozen] = fmt.Sprintf("temperature stuck at %.1f°C for %d checks", valid.Temperature, m.frozen)
		}

		m.updateOverheat(ctx, now, valid.Temperature)
	}

	var hot []string
	if m.overheated {
		hot = append(hot, fmt.Sprintf("box temperature %.1f°C", valid.Temperature))
	}
	if m.cpu != nil {
		if c, err := m.cpu(); err == nil && c > m.cfg.OverheatC {
			hot = append(hot, fmt.Sprintf("board temperature %.1f°C", c))
		}
	}
	if len(hot) > 0 {
		failing[CodeOverheated] = fmt.Sprintf("system overheated: %v", hot)
	}

	report := Report{
		Healthy:    len(failing) == 0,
		Overheated: len(hot) > 0,
		CheckedAt:  now,
		Conditions: []Condition{},
	}

	var errs []error
	for _, code := range Codes {
		msg, bad := failing[code]
		if !bad {
			if _, err := m.issues.Resolve(ctx, int(code)); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		report.Conditions = append(report.Conditions, Condition{
			Code:     code,
			Name:     code.String(),
			Severity: code.Severity(),
			Message:  msg,
		})
		created, err := m.issues.Raise(ctx, int(code), code.Severity(), msg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if created {
			log.Warn().Int("code", int(code)).Str("condition", code.String()).Msg(msg)
		}
	}

	m.last = report
	return report, errors.Join(errs...)
}

// updateOverheat applies the box overheat threshold with a 1 °C release
// band. Caller holds mu.
func (m *Monitor) updateOverheat(ctx context.Context, now time.Time, temp float64) {
	if m.settings == nil {
		return
	}
	s, err := m.settings(ctx)
	if err != nil {
		return
	}
	target := s.TemperatureTarget(now.In(m.loc))

	limit := target + m.cfg.OverheatMargin
	if m.overheated {
		if temp <= limit-1 {
			m.overheated = false
		}
	} else if temp > limit {
		m.overheated = true
	}
}

// Last returns the most recent report.
func (m *Monitor) Last() Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
