// Package sensor reads the climate sensor board and records samples.
package sensor

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrNoSensor indicates no sensor board is attached
	ErrNoSensor = errors.New("no sensor attached")

	// ErrInvalidSample indicates the board returned an implausible reading
	ErrInvalidSample = errors.New("invalid sensor sample")
)

// Plausible temperature range of the sensor, in °C.
const (
	MinTemperature = -40.0
	MaxTemperature = 85.0
)

// Sample is one reading from the sensor board. TVOC is -1 when the board
// has no VOC sensor.
type Sample struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	CO2         float64   `json:"co2"`
	TVOC        float64   `json:"tvoc"`
	TakenAt     time.Time `json:"taken_at"`
}

// Fahrenheit converts a Celsius temperature.
func Fahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// Validate rejects readings outside the sensor's physical range.
func (s Sample) Validate() error {
	switch {
	case math.IsNaN(s.Temperature) || s.Temperature < MinTemperature || s.Temperature > MaxTemperature:
		return fmt.Errorf("%w: temperature %.1f", ErrInvalidSample, s.Temperature)
	case math.IsNaN(s.Humidity) || s.Humidity < 0 || s.Humidity > 100:
		return fmt.Errorf("%w: humidity %.1f", ErrInvalidSample, s.Humidity)
	case math.IsNaN(s.CO2) || s.CO2 < 0:
		return fmt.Errorf("%w: co2 %.0f", ErrInvalidSample, s.CO2)
	}
	return nil
}
