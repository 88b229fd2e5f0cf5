package device

import "errors"

var (
	// ErrNotFound indicates a device was not found
	ErrNotFound = errors.New("device not found")

	// ErrNotConnected indicates the controller has no data source
	ErrNotConnected = errors.New("controller not connected")

	// ErrMalformed indicates a zigbee2mqtt data file could not be parsed
	ErrMalformed = errors.New("malformed zigbee data")

	// ErrTimeout indicates the broker did not acknowledge a command in time
	ErrTimeout = errors.New("request timed out")
)
