package device

import (
	"context"
	"encoding/json"
)

// Controller provides read access to the zigbee network roster and the
// last reported device states.
type Controller interface {
	// ListDevices returns all devices in the network database
	ListDevices(ctx context.Context) ([]Device, error)

	// RawDevices returns the database records unmodified, one per device
	RawDevices(ctx context.Context) ([]json.RawMessage, error)

	// GetDevice returns a single device by IEEE address
	GetDevice(ctx context.Context, id string) (*Device, error)

	// GetDeviceState returns the last reported state of a device, keyed by
	// IEEE address or friendly name
	GetDeviceState(ctx context.Context, id string) (DeviceState, error)

	// RawState returns the state document verbatim
	RawState(ctx context.Context) (json.RawMessage, error)

	// IsConnected returns true if the controller has a data source
	IsConnected() bool

	// Close releases the controller's resources
	Close()
}
