package device

import (
	"context"
	"time"
)

// Commander sends commands to zigbee devices. Devices are addressed by IEEE
// address or friendly name.
type Commander interface {
	// SetState switches a device on or off
	SetState(ctx context.Context, id string, on bool) error

	// Toggle flips a device's switch state
	Toggle(ctx context.Context, id string) error

	// PermitJoin opens (or closes) the network for pairing. duration is
	// ignored when enable is false.
	PermitJoin(ctx context.Context, enable bool, duration time.Duration) error

	// IsConnected returns true if commands can currently be delivered
	IsConnected() bool
}

// EventSubscriber delivers network events such as devices joining.
type EventSubscriber interface {
	Subscribe() <-chan Event
	Unsubscribe(ch <-chan Event)
}

// Event types
const (
	EventDeviceJoined    = "device_joined"
	EventDeviceInterview = "device_interview"
	EventDeviceAnnounce  = "device_announce"
	EventDeviceLeave     = "device_leave"
)

// Event is one zigbee2mqtt bridge event.
type Event struct {
	Type      string    `json:"type"`
	Device    string    `json:"device"`
	IEEEAddr  string    `json:"ieee_address,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NullCommander rejects every command. It is used when no broker is
// configured.
type NullCommander struct {
	events chan Event
}

// NewNullCommander creates a new NullCommander.
func NewNullCommander() *NullCommander {
	return &NullCommander{events: make(chan Event)}
}

func (c *NullCommander) SetState(ctx context.Context, id string, on bool) error {
	return ErrNotConnected
}

func (c *NullCommander) Toggle(ctx context.Context, id string) error {
	return ErrNotConnected
}

func (c *NullCommander) PermitJoin(ctx context.Context, enable bool, duration time.Duration) error {
	return ErrNotConnected
}

func (c *NullCommander) IsConnected() bool {
	return false
}

// Subscribe returns a channel that never delivers.
func (c *NullCommander) Subscribe() <-chan Event {
	return c.events
}

func (c *NullCommander) Unsubscribe(ch <-chan Event) {}
