package device

import (
	"encoding/json"
	"strings"
)

// Device is one entry of the zigbee2mqtt device database.
type Device struct {
	ID           string          `json:"id"`   // IEEE address
	Type         string          `json:"type"` // Coordinator, Router or EndDevice
	NetworkAddr  int             `json:"network_address"`
	Manufacturer string          `json:"manufacturer"`
	Model        string          `json:"model"`
	PowerSource  string          `json:"power_source,omitempty"`
	LastSeen     int64           `json:"last_seen,omitempty"` // unix milliseconds
	Raw          json.RawMessage `json:"-"`
}

// record is the on-disk shape of a database.db line.
type record struct {
	Type        string `json:"type"`
	IEEEAddr    string `json:"ieeeAddr"`
	NwkAddr     int    `json:"nwkAddr"`
	ManufName   string `json:"manufName"`
	ModelID     string `json:"modelId"`
	PowerSource string `json:"powerSource"`
	LastSeen    int64  `json:"lastSeen"`
}

func (r record) device(raw json.RawMessage) Device {
	return Device{
		ID:           r.IEEEAddr,
		Type:         r.Type,
		NetworkAddr:  r.NwkAddr,
		Manufacturer: r.ManufName,
		Model:        r.ModelID,
		PowerSource:  r.PowerSource,
		LastSeen:     r.LastSeen,
		Raw:          raw,
	}
}

// DeviceState represents the current state of a device as a dynamic map.
type DeviceState map[string]any

// On reports whether the state carries an "ON" switch state.
func (s DeviceState) On() bool {
	switch v := s["state"].(type) {
	case string:
		return strings.EqualFold(v, "on")
	case bool:
		return v
	}
	return false
}

// Device type constants
const (
	DeviceTypeCoordinator = "Coordinator"
	DeviceTypeRouter      = "Router"
	DeviceTypeEndDevice   = "EndDevice"
)
