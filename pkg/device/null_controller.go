package device

import (
	"context"
	"encoding/json"
)

// NullController is a no-op controller used when zigbee2mqtt data is
// unavailable. It allows the API to run in limited mode.
type NullController struct{}

// NewNullController creates a new NullController.
func NewNullController() *NullController {
	return &NullController{}
}

func (c *NullController) ListDevices(ctx context.Context) ([]Device, error) {
	return []Device{}, nil
}

func (c *NullController) RawDevices(ctx context.Context) ([]json.RawMessage, error) {
	return nil, ErrNotConnected
}

func (c *NullController) GetDevice(ctx context.Context, id string) (*Device, error) {
	return nil, ErrNotFound
}

func (c *NullController) GetDeviceState(ctx context.Context, id string) (DeviceState, error) {
	return nil, ErrNotConnected
}

func (c *NullController) RawState(ctx context.Context) (json.RawMessage, error) {
	return nil, ErrNotConnected
}

func (c *NullController) IsConnected() bool {
	return false
}

func (c *NullController) Close() {}
