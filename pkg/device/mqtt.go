package device

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// DefaultBaseTopic is zigbee2mqtt's default MQTT base topic.
const DefaultBaseTopic = "zigbee2mqtt"

const eventBuffer = 16

// Publisher delivers one MQTT message.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker    string
	ClientID  string
	Username  string
	Password  string
	BaseTopic string
	Timeout   time.Duration
}

// MQTTCommander drives devices through zigbee2mqtt's MQTT interface and
// relays its bridge events to subscribers.
type MQTTCommander struct {
	pub       Publisher
	baseTopic string
	client    mqtt.Client

	mu     sync.Mutex
	subs   map[<-chan Event]chan Event
	closed bool
}

// NewMQTTCommander creates a commander publishing through pub.
func NewMQTTCommander(pub Publisher, baseTopic string) *MQTTCommander {
	if baseTopic == "" {
		baseTopic = DefaultBaseTopic
	}
	return &MQTTCommander{
		pub:       pub,
		baseTopic: strings.TrimSuffix(baseTopic, "/"),
		subs:      make(map[<-chan Event]chan Event),
	}
}

// DialMQTT connects to the broker and subscribes to bridge events. The
// connection reconnects on its own after the first successful connect.
func DialMQTT(cfg MQTTConfig) (*MQTTCommander, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "growbox"
	}

	c := NewMQTTCommander(nil, cfg.BaseTopic)
	eventTopic := c.baseTopic + "/bridge/event"

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(client mqtt.Client) {
			// Subscriptions do not survive a reconnect with a clean session.
			token := client.Subscribe(eventTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
				if err := c.handleBridgeEvent(msg.Payload()); err != nil {
					log.Debug().Err(err).Str("topic", msg.Topic()).Msg("Ignoring bridge event")
				}
			})
			if token.WaitTimeout(timeout) && token.Error() != nil {
				log.Error().Err(token.Error()).Str("topic", eventTopic).Msg("Failed to subscribe")
			}
			log.Info().Str("broker", cfg.Broker).Msg("Connected to MQTT broker")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Str("broker", cfg.Broker).Msg("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("%w: connecting to %s", ErrTimeout, cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to broker %s: %w", cfg.Broker, err)
	}

	c.client = client
	c.pub = &pahoPublisher{client: client, timeout: timeout}
	return c, nil
}

// SetState implements Commander.
func (c *MQTTCommander) SetState(ctx context.Context, id string, on bool) error {
	state := "OFF"
	if on {
		state = "ON"
	}
	return c.set(ctx, id, state)
}

// Toggle implements Commander.
func (c *MQTTCommander) Toggle(ctx context.Context, id string) error {
	return c.set(ctx, id, "TOGGLE")
}

// PermitJoin implements Commander.
func (c *MQTTCommander) PermitJoin(ctx context.Context, enable bool, duration time.Duration) error {
	payload := map[string]any{"value": enable}
	if enable && duration > 0 {
		payload["time"] = int(duration.Seconds())
	}
	return c.publish(ctx, c.baseTopic+"/bridge/request/permit_join", payload)
}

// IsConnected implements Commander.
func (c *MQTTCommander) IsConnected() bool {
	if c.client != nil {
		return c.client.IsConnectionOpen()
	}
	return c.pub != nil
}

// Subscribe implements EventSubscriber.
func (c *MQTTCommander) Subscribe() <-chan Event {
	ch := make(chan Event, eventBuffer)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch
	}
	c.subs[ch] = ch
	return ch
}

// Unsubscribe implements EventSubscriber.
func (c *MQTTCommander) Unsubscribe(ch <-chan Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub, ok := c.subs[ch]; ok {
		delete(c.subs, ch)
		close(sub)
	}
}

// Close disconnects from the broker and ends every subscription.
func (c *MQTTCommander) Close() {
	if c.client != nil {
		c.client.Disconnect(250)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for key, sub := range c.subs {
		delete(c.subs, key)
		close(sub)
	}
}

func (c *MQTTCommander) set(ctx context.Context, id, state string) error {
	if id == "" || strings.ContainsAny(id, "/#+") {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c.publish(ctx, c.baseTopic+"/"+id+"/set", map[string]string{"state": state})
}

func (c *MQTTCommander) publish(ctx context.Context, topic string, payload any) error {
	if c.pub == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := c.pub.Publish(ctx, topic, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// bridgeEvent is the payload of <base>/bridge/event.
type bridgeEvent struct {
	Type string `json:"type"`
	Data struct {
		FriendlyName string `json:"friendly_name"`
		IEEEAddress  string `json:"ieee_address"`
		Status       string `json:"status"`
	} `json:"data"`
}

func (c *MQTTCommander) handleBridgeEvent(payload []byte) error {
	var ev bridgeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ev.Type == "" {
		return fmt.Errorf("%w: event without type", ErrMalformed)
	}

	event := Event{
		Type:      ev.Type,
		Device:    ev.Data.FriendlyName,
		IEEEAddr:  ev.Data.IEEEAddress,
		Status:    ev.Data.Status,
		Timestamp: time.Now(),
	}
	if event.Device == "" {
		event.Device = event.IEEEAddr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.subs {
		select {
		case sub <- event:
		default:
			// slow subscriber; drop
		}
	}
	return nil
}

type pahoPublisher struct {
	client  mqtt.Client
	timeout time.Duration
}

func (p *pahoPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	token := p.client.Publish(topic, 1, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTimeout
	}
}
