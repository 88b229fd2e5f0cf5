package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTime indicates a clock time that is not HH:MM
var ErrInvalidTime = errors.New("invalid clock time")

// Fridge control modes
const (
	FridgeModeOff  = "off"
	FridgeModeOn   = "on"
	FridgeModeAuto = "auto"
)

// Settings is the dashboard configuration document. The task manager treats
// it as an opaque payload; the climate controllers and the health monitor
// read the setpoints.
type Settings struct {
	API         APICredentials `json:"api"`
	DeviceName  string         `json:"device_name"`
	Light       LightSchedule  `json:"light"`
	CO2         Setpoint       `json:"co2"`
	Temperature DayNight       `json:"temperature"`
	Humidity    Setpoint       `json:"humidity"`
	Fridge      FridgeControl  `json:"fridge"`
}

// APICredentials holds the backend account the box reports to.
type APICredentials struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	APIKey   string `json:"api_key"`
}

// LightSchedule is the daily on/off window in local HH:MM.
type LightSchedule struct {
	On  string `json:"on"`
	Off string `json:"off"`
}

// Setpoint is a target value with a switching hysteresis.
type Setpoint struct {
	Target     float64 `json:"target"`
	Hysteresis float64 `json:"hysteresis"`
}

// DayNight holds separate targets for the light and dark phases.
type DayNight struct {
	Day        float64 `json:"day"`
	Night      float64 `json:"night"`
	Hysteresis float64 `json:"hysteresis"`
}

// FridgeControl selects how the fridge relay is driven.
type FridgeControl struct {
	Mode string `json:"mode"`
}

// Defaults returns the settings a fresh installation starts with.
func Defaults() Settings {
	return Settings{
		DeviceName: "growbox",
		Light:      LightSchedule{On: "08:00", Off: "22:00"},
		CO2:        Setpoint{Target: 800, Hysteresis: 100},
		Temperature: DayNight{
			Day:        24.5,
			Night:      20,
			Hysteresis: 0.5,
		},
		Humidity: Setpoint{Target: 60, Hysteresis: 5},
		Fridge:   FridgeControl{Mode: FridgeModeAuto},
	}
}

// ParseClock parses an HH:MM clock time.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// LightOn reports whether the schedule has the light on at the given time.
// Windows that cross midnight are supported.
func (l LightSchedule) LightOn(now time.Time) (bool, error) {
	on, err := ParseClock(l.On)
	if err != nil {
		return false, err
	}
	off, err := ParseClock(l.Off)
	if err != nil {
		return false, err
	}
	cur := time.Duration(now.Hour())*time.Hour + time.Duration(now.Minute())*time.Minute
	if on <= off {
		return on <= cur && cur <= off, nil
	}
	return cur >= on || cur <= off, nil
}

// TemperatureTarget returns the day target while the light is on and the
// night target otherwise. An unparsable schedule counts as night.
func (s Settings) TemperatureTarget(now time.Time) float64 {
	if on, err := s.Light.LightOn(now); err == nil && on {
		return s.Temperature.Day
	}
	return s.Temperature.Night
}

// Decode parses and validates a settings document.
func Decode(v *Validator, raw []byte) (Settings, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := v.ValidateSettings(payload); err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := ParseClock(s.Light.On); err != nil {
		return Settings{}, fmt.Errorf("%w: light.on: %v", ErrValidation, err)
	}
	if _, err := ParseClock(s.Light.Off); err != nil {
		return Settings{}, fmt.Errorf("%w: light.off: %v", ErrValidation, err)
	}
	return s, nil
}
