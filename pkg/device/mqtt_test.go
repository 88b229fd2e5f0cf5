package device

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type message struct {
	topic   string
	payload string
}

// fakePublisher records published messages.
type fakePublisher struct {
	mu   sync.Mutex
	sent []message
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, message{topic: topic, payload: string(payload)})
	return nil
}

func (p *fakePublisher) last() message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sent) == 0 {
		return message{}
	}
	return p.sent[len(p.sent)-1]
}

func TestMQTTCommander_SetStateAndToggle(t *testing.T) {
	pub := &fakePublisher{}
	c := NewMQTTCommander(pub, "")
	ctx := context.Background()

	if err := c.SetState(ctx, "fridge", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pub.last(); got.topic != "zigbee2mqtt/fridge/set" || got.payload != `{"state":"ON"}` {
		t.Errorf("unexpected message %+v", got)
	}

	_ = c.SetState(ctx, "0xa4c1380002", false)
	if got := pub.last(); got.topic != "zigbee2mqtt/0xa4c1380002/set" || got.payload != `{"state":"OFF"}` {
		t.Errorf("unexpected message %+v", got)
	}

	_ = c.Toggle(ctx, "light")
	if got := pub.last(); got.payload != `{"state":"TOGGLE"}` {
		t.Errorf("expected TOGGLE, got %s", got.payload)
	}
}

func TestMQTTCommander_RejectsTopicWildcards(t *testing.T) {
	pub := &fakePublisher{}
	c := NewMQTTCommander(pub, "z2m/")

	for _, id := range []string{"", "a/b", "#", "+"} {
		if err := c.SetState(context.Background(), id, true); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for %q, got %v", id, err)
		}
	}
	if len(pub.sent) != 0 {
		t.Errorf("expected nothing published, got %d messages", len(pub.sent))
	}
}

func TestMQTTCommander_PermitJoin(t *testing.T) {
	pub := &fakePublisher{}
	c := NewMQTTCommander(pub, "z2m")
	ctx := context.Background()

	if err := c.PermitJoin(ctx, true, 2*time.Minute); err != nil {
		t.Fatal(err)
	}
	if got := pub.last(); got.topic != "z2m/bridge/request/permit_join" || got.payload != `{"time":120,"value":true}` {
		t.Errorf("unexpected message %+v", got)
	}

	_ = c.PermitJoin(ctx, false, time.Minute)
	if got := pub.last(); got.payload != `{"value":false}` {
		t.Errorf("expected disable payload, got %s", got.payload)
	}
}

func TestMQTTCommander_PublishError(t *testing.T) {
	c := NewMQTTCommander(&fakePublisher{err: ErrTimeout}, "")
	if err := c.SetState(context.Background(), "fridge", true); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}

	disconnected := NewMQTTCommander(nil, "")
	if disconnected.IsConnected() {
		t.Error("expected a commander without publisher to be disconnected")
	}
	if err := disconnected.Toggle(context.Background(), "fridge"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestMQTTCommander_BridgeEvents(t *testing.T) {
	c := NewMQTTCommander(&fakePublisher{}, "")
	ch := c.Subscribe()

	err := c.handleBridgeEvent([]byte(`{"type":"device_joined","data":{"friendly_name":"0xa4c1380003","ieee_address":"0xa4c1380003"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case ev := <-ch:
		if ev.Type != EventDeviceJoined || ev.Device != "0xa4c1380003" {
			t.Errorf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("expected an event")
	}

	if err := c.handleBridgeEvent([]byte(`not json`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}

	c.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("expected channel closed after Unsubscribe")
	}

	c.Close()
	late := c.Subscribe()
	if _, ok := <-late; ok {
		t.Error("expected closed channel after Close")
	}
}

func TestNullCommander(t *testing.T) {
	c := NewNullCommander()
	if c.IsConnected() {
		t.Error("expected NullCommander to be disconnected")
	}
	if err := c.SetState(context.Background(), "fridge", true); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if err := c.PermitJoin(context.Background(), true, time.Minute); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}
