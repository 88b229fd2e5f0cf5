// Package sysinfo reads board temperatures from the Linux thermal sysfs.
package sysinfo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrNoSensors indicates no thermal zone could be read
var ErrNoSensors = errors.New("no thermal sensors found")

// DefaultRoot is the sysfs thermal class directory.
const DefaultRoot = "/sys/class/thermal"

// Temperature is one sensor reading in °C. High and Critical are nil when
// the zone has no such trip point.
type Temperature struct {
	Label    string
	Current  float64
	High     *float64
	Critical *float64
}

// MarshalJSON encodes the reading as [label, current, high, critical].
func (t Temperature) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.Label, t.Current, t.High, t.Critical})
}

// Thermal reads thermal zones below Root.
type Thermal struct {
	Root string
}

// NewThermal creates a reader over the default sysfs root.
func NewThermal() *Thermal {
	return &Thermal{Root: DefaultRoot}
}

// Temperatures returns readings grouped by zone type, e.g. "cpu_thermal".
func (t *Thermal) Temperatures() (map[string][]Temperature, error) {
	zones, err := filepath.Glob(filepath.Join(t.Root, "thermal_zone*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(zones)

	out := make(map[string][]Temperature)
	for _, zone := range zones {
		cur, err := readMilli(filepath.Join(zone, "temp"))
		if err != nil {
			continue
		}
		name := "thermal"
		if b, err := os.ReadFile(filepath.Join(zone, "type")); err == nil {
			name = strings.ReplaceAll(strings.TrimSpace(string(b)), "-", "_")
		}
		reading := Temperature{Current: cur}
		reading.High, reading.Critical = tripPoints(zone)
		out[name] = append(out[name], reading)
	}
	if len(out) == 0 {
		return nil, ErrNoSensors
	}
	return out, nil
}

// CPU returns the current temperature of the first zone, preferring one
// named cpu_thermal.
func (t *Thermal) CPU() (float64, error) {
	temps, err := t.Temperatures()
	if err != nil {
		return 0, err
	}
	if r, ok := temps["cpu_thermal"]; ok && len(r) > 0 {
		return r[0].Current, nil
	}
	names := make([]string, 0, len(temps))
	for name := range temps {
		names = append(names, name)
	}
	sort.Strings(names)
	return temps[names[0]][0].Current, nil
}

// tripPoints finds the lowest "hot"/"passive" and the "critical" trip points.
func tripPoints(zone string) (high, crit *float64) {
	types, _ := filepath.Glob(filepath.Join(zone, "trip_point_*_type"))
	for _, typePath := range types {
		b, err := os.ReadFile(typePath)
		if err != nil {
			continue
		}
		v, err := readMilli(strings.TrimSuffix(typePath, "_type") + "_temp")
		if err != nil {
			continue
		}
		switch strings.TrimSpace(string(b)) {
		case "critical":
			crit = &v
		case "hot", "passive":
			if high == nil || v < *high {
				high = &v
			}
		}
	}
	return high, crit
}

func readMilli(path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return float64(n) / 1000, nil
}
