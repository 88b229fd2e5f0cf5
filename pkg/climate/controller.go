// Package climate switches the grow box actuators from the latest sensor
// sample and the active settings. Each configured outlet is driven by its
// own periodic task.
package climate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urmzd/growbox/pkg/device"
	"github.com/urmzd/growbox/pkg/sensor"
	"github.com/urmzd/growbox/pkg/settings"
	"github.com/urmzd/growbox/pkg/taskgroup"
)

// ErrUnknownOutlet indicates a role with no device configured
var ErrUnknownOutlet = errors.New("unknown outlet")

// Outlet roles
const (
	Light      = "light"
	Fridge     = "fridge"
	Heater     = "heater"
	Humidifier = "humidifier"
	CO2        = "co2"
)

// Readings exposes the sampler's newest valid sample.
type Readings interface {
	LastValid() (sensor.Sample, bool)
}

// OutletConfig binds a role to a zigbee device. MinOff is how long the
// outlet stays off before it may be switched on again.
type OutletConfig struct {
	Role   string
	Device string
	MinOff time.Duration
}

// Config tunes the control loops.
type Config struct {
	Interval    time.Duration
	CO2Interval time.Duration
	CO2Pulse    time.Duration
	StaleAfter  time.Duration
	Override    time.Duration
	Outlets     []OutletConfig
}

// OutletStatus is a point-in-time view of one outlet.
type OutletStatus struct {
	Role          string     `json:"role"`
	Device        string     `json:"device"`
	On            *bool      `json:"on,omitempty"`
	OverrideUntil *time.Time `json:"override_until,omitempty"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLocation sets the zone the light schedule is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) { c.loc = loc }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// Controller owns the outlets and their last commanded states. It is safe
// for concurrent use.
type Controller struct {
	cfg       Config
	commander device.Commander
	readings  Readings
	settings  func(ctx context.Context) (settings.Settings, error)
	now       func() time.Time
	loc       *time.Location
	log       zerolog.Logger

	mu      sync.Mutex
	outlets map[string]*outlet
}

type outlet struct {
	role     string
	device   string
	minOff   time.Duration
	on       bool
	known    bool
	offAt    time.Time
	override time.Time
}

type decision int

const (
	keep decision = iota
	switchOn
	switchOff
)

// NewController creates a controller. Outlets with an empty device are
// skipped.
func NewController(cfg Config, commander device.Commander, readings Readings, settingsFn func(ctx context.Context) (settings.Settings, error), opts ...Option) *Controller {
	c := &Controller{
		cfg:       cfg,
		commander: commander,
		readings:  readings,
		settings:  settingsFn,
		now:       time.Now,
		loc:       time.Local,
		log:       log.Logger,
		outlets:   make(map[string]*outlet),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, oc := range cfg.Outlets {
		if oc.Device == "" {
			continue
		}
		c.outlets[oc.Role] = &outlet{role: oc.Role, device: oc.Device, minOff: oc.MinOff}
	}
	return c
}

// Tasks returns one task per configured outlet, in a fixed role order.
func (c *Controller) Tasks() []taskgroup.Task {
	var tasks []taskgroup.Task
	add := func(role string, period time.Duration, run taskgroup.Func) {
		if _, ok := c.outlets[role]; ok {
			tasks = append(tasks, taskgroup.Task{Name: role, Period: period, Run: run})
		}
	}
	add(Light, c.cfg.Interval, c.ControlLight)
	add(Fridge, c.cfg.Interval, c.ControlFridge)
	add(Heater, c.cfg.Interval, c.ControlHeater)
	add(Humidifier, c.cfg.Interval, c.ControlHumidifier)
	add(CO2, c.cfg.CO2Interval, c.ControlCO2)
	return tasks
}

// ControlLight follows the light schedule.
func (c *Controller) ControlLight(ctx context.Context) error {
	return c.step(ctx, Light, func(s settings.Settings, _ sensor.Sample, _ bool, now time.Time) (decision, error) {
		on, err := s.Light.LightOn(now)
		if err != nil {
			return keep, err
		}
		if on {
			return switchOn, nil
		}
		return switchOff, nil
	})
}

// ControlFridge cools above the temperature target and stops below target
// minus hysteresis. Without a fresh sample the fridge is switched off.
func (c *Controller) ControlFridge(ctx context.Context) error {
	return c.step(ctx, Fridge, func(s settings.Settings, sample sensor.Sample, ok bool, now time.Time) (decision, error) {
		switch s.Fridge.Mode {
		case settings.FridgeModeOn:
			return switchOn, nil
		case settings.FridgeModeOff:
			return switchOff, nil
		}
		if !ok {
			return switchOff, nil
		}
		target := s.TemperatureTarget(now)
		switch {
		case sample.Temperature > target:
			return switchOn, nil
		case sample.Temperature < target-s.Temperature.Hysteresis:
			return switchOff, nil
		}
		return keep, nil
	})
}

// ControlHeater heats below target minus hysteresis and stops above the
// target.
func (c *Controller) ControlHeater(ctx context.Context) error {
	return c.step(ctx, Heater, func(s settings.Settings, sample sensor.Sample, ok bool, now time.Time) (decision, error) {
		if !ok {
			return switchOff, nil
		}
		target := s.TemperatureTarget(now)
		switch {
		case sample.Temperature < target-s.Temperature.Hysteresis:
			return switchOn, nil
		case sample.Temperature > target:
			return switchOff, nil
		}
		return keep, nil
	})
}

// ControlHumidifier humidifies below target minus hysteresis and stops at
// the target.
func (c *Controller) ControlHumidifier(ctx context.Context) error {
	return c.step(ctx, Humidifier, func(s settings.Settings, sample sensor.Sample, ok bool, _ time.Time) (decision, error) {
		if !ok {
			return switchOff, nil
		}
		switch {
		case sample.Humidity < s.Humidity.Target-s.Humidity.Hysteresis:
			return switchOn, nil
		case sample.Humidity >= s.Humidity.Target:
			return switchOff, nil
		}
		return keep, nil
	})
}

// ControlCO2 opens the CO2 valve for one pulse when the level is below
// target minus hysteresis.
func (c *Controller) ControlCO2(ctx context.Context) error {
	o, ok := c.outlet(CO2)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOutlet, CO2)
	}
	s, err := c.settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	sample, fresh := c.sample()
	if !fresh || sample.CO2 >= s.CO2.Target-s.CO2.Hysteresis {
		return nil
	}
	if c.overridden(o, c.now()) {
		return nil
	}

	if err := c.commander.SetState(ctx, o.device, true); err != nil {
		return fmt.Errorf("failed to open co2 valve: %w", err)
	}
	timer := time.NewTimer(c.cfg.CO2Pulse)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	// Close even when the group was stopped mid-pulse.
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := c.commander.SetState(closeCtx, o.device, false); err != nil {
		return fmt.Errorf("failed to close co2 valve: %w", err)
	}

	c.mu.Lock()
	o.on, o.known = false, true
	c.mu.Unlock()
	c.log.Info().Float64("co2", sample.CO2).Dur("pulse", c.cfg.CO2Pulse).Msg("CO2 valve pulsed")
	return nil
}

// Switch sets an outlet by hand and suspends its automatic control for the
// override period. It returns the end of the override.
func (c *Controller) Switch(ctx context.Context, role string, on bool) (time.Time, error) {
	o, ok := c.outlet(role)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnknownOutlet, role)
	}
	if err := c.commander.SetState(ctx, o.device, on); err != nil {
		return time.Time{}, err
	}

	now := c.now()
	until := now.Add(c.cfg.Override)
	c.mu.Lock()
	c.record(o, on, now)
	o.override = until
	c.mu.Unlock()

	c.log.Info().Str("outlet", role).Bool("on", on).Time("until", until).Msg("Manual override")
	return until, nil
}

// SwitchDevice switches a device by IEEE address or friendly name. Devices
// bound to an outlet get the manual override of Switch.
func (c *Controller) SwitchDevice(ctx context.Context, id string, on bool) (*time.Time, error) {
	if role, ok := c.RoleOf(id); ok {
		until, err := c.Switch(ctx, role, on)
		if err != nil {
			return nil, err
		}
		return &until, nil
	}
	return nil, c.commander.SetState(ctx, id, on)
}

// RoleOf returns the outlet role a device is bound to.
func (c *Controller) RoleOf(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for role, o := range c.outlets {
		if o.device == id {
			return role, true
		}
	}
	return "", false
}

// Status returns every configured outlet, ordered by role.
func (c *Controller) Status() []OutletStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := make([]OutletStatus, 0, len(c.outlets))
	for _, o := range c.outlets {
		st := OutletStatus{Role: o.role, Device: o.device}
		if o.known {
			on := o.on
			st.On = &on
		}
		if now.Before(o.override) {
			until := o.override
			st.OverrideUntil = &until
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}

func (c *Controller) step(ctx context.Context, role string, decide func(settings.Settings, sensor.Sample, bool, time.Time) (decision, error)) error {
	o, ok := c.outlet(role)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOutlet, role)
	}
	s, err := c.settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	sample, fresh := c.sample()
	now := c.now()

	d, err := decide(s, sample, fresh, now.In(c.loc))
	if err != nil || d == keep {
		return err
	}
	return c.apply(ctx, o, d == switchOn, now)
}

func (c *Controller) apply(ctx context.Context, o *outlet, on bool, now time.Time) error {
	c.mu.Lock()
	switch {
	case now.Before(o.override):
		c.mu.Unlock()
		return nil
	case o.known && o.on == on:
		c.mu.Unlock()
		return nil
	case on && !o.offAt.IsZero() && now.Sub(o.offAt) < o.minOff:
		wait := o.minOff - now.Sub(o.offAt)
		c.mu.Unlock()
		c.log.Debug().Str("outlet", o.role).Dur("wait", wait).Msg("Minimum off time not reached")
		return nil
	}
	c.mu.Unlock()

	if err := c.commander.SetState(ctx, o.device, on); err != nil {
		return fmt.Errorf("failed to switch %s: %w", o.role, err)
	}

	c.mu.Lock()
	c.record(o, on, now)
	c.mu.Unlock()

	c.log.Info().Str("outlet", o.role).Str("device", o.device).Bool("on", on).Msg("Outlet switched")
	return nil
}

// record stores a commanded state. Caller holds mu.
func (c *Controller) record(o *outlet, on bool, now time.Time) {
	if !on && o.known && o.on {
		o.offAt = now
	}
	o.on, o.known = on, true
}

func (c *Controller) overridden(o *outlet, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Before(o.override)
}

func (c *Controller) outlet(role string) (*outlet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.outlets[role]
	return o, ok
}

// sample returns the newest valid sample and whether it is fresh enough to
// act on.
func (c *Controller) sample() (sensor.Sample, bool) {
	s, ok := c.readings.LastValid()
	if !ok {
		return sensor.Sample{}, false
	}
	if c.cfg.StaleAfter > 0 && c.now().Sub(s.TakenAt) > c.cfg.StaleAfter {
		return s, false
	}
	return s, true
}
