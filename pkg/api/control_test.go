package api

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/urmzd/growbox/pkg/api/types"
	"github.com/urmzd/growbox/pkg/climate"
	"github.com/urmzd/growbox/pkg/device"
	"github.com/urmzd/growbox/pkg/sensor"
	"github.com/urmzd/growbox/pkg/settings"
)

type published struct {
	topic   string
	payload string
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic: topic, payload: string(payload)})
	return nil
}

func (p *recordingPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.msgs...)
}

type noReadings struct{}

func (noReadings) LastValid() (sensor.Sample, bool) { return sensor.Sample{}, false }

func newControlEnv(t *testing.T) (*testEnv, *recordingPublisher, *climate.Controller) {
	t.Helper()
	pub := &recordingPublisher{}
	commander := device.NewMQTTCommander(pub, "")
	t.Cleanup(commander.Close)
	outlets := climate.NewController(
		climate.Config{
			Override: 15 * time.Minute,
			Outlets: []climate.OutletConfig{
				{Role: climate.Light, Device: "grow-light"},
				{Role: climate.Fridge, Device: "fridge"},
			},
		},
		commander, noReadings{},
		func(ctx context.Context) (settings.Settings, error) { return settings.Defaults(), nil },
	)
	env := newTestEnv(t, func(d *Deps) {
		d.Commander = commander
		d.Events = commander
		d.Outlets = outlets
	})
	return env, pub, outlets
}

func TestLightControl(t *testing.T) {
	env, pub, _ := newControlEnv(t)

	w := env.do(http.MethodPost, "/light/control", `{"state":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp types.StatusResponse
	decode(t, w, &resp)
	if resp.Status != "light turned ON" {
		t.Errorf("expected 'light turned ON', got %q", resp.Status)
	}
	msgs := pub.all()
	if len(msgs) != 1 || msgs[0].topic != "zigbee2mqtt/grow-light/set" || msgs[0].payload != `{"state":"ON"}` {
		t.Errorf("unexpected messages %+v", msgs)
	}

	w = env.do(http.MethodPost, "/light/control", `{"state":false}`)
	decode(t, w, &resp)
	if resp.Status != "light turned OFF" {
		t.Errorf("expected 'light turned OFF', got %q", resp.Status)
	}

	if w := env.do(http.MethodPost, "/light/control", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without state, got %d", w.Code)
	}
}

func TestLightControl_NotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	if w := env.do(http.MethodPost, "/light/control", `{"state":true}`); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a light outlet, got %d", w.Code)
	}
}

func TestSwitchOutlet(t *testing.T) {
	env, pub, _ := newControlEnv(t)

	w := env.do(http.MethodPost, "/zigbee/devices/fridge/state", `{"state":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp types.SwitchResponse
	decode(t, w, &resp)
	if resp.State != "OFF" || resp.OverrideUntil == nil {
		t.Errorf("expected OFF with an override, got %+v", resp)
	}

	w = env.do(http.MethodPost, "/zigbee/devices/0xa4c1380002/state", `{"state":true}`)
	decode(t, w, &resp)
	if resp.State != "ON" || resp.OverrideUntil != nil {
		t.Errorf("expected ON without override for an unbound outlet, got %+v", resp)
	}
	if msgs := pub.all(); len(msgs) != 2 || msgs[1].topic != "zigbee2mqtt/0xa4c1380002/set" {
		t.Errorf("unexpected messages %+v", msgs)
	}

	w = env.do(http.MethodGet, "/api/v1/outlets", "")
	var outlets types.OutletsResponse
	decode(t, w, &outlets)
	if outlets.Count != 2 {
		t.Fatalf("expected 2 outlets, got %d", outlets.Count)
	}
	for _, o := range outlets.Outlets {
		if o.Role == climate.Fridge && (o.On == nil || *o.On || o.OverrideUntil == nil) {
			t.Errorf("unexpected fridge status %+v", o)
		}
	}
}

func TestToggleOutlet(t *testing.T) {
	env, pub, _ := newControlEnv(t)

	w := env.do(http.MethodPost, "/zigbee/devices/0xa4c1380002/toggle", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if msgs := pub.all(); len(msgs) != 1 || msgs[0].payload != `{"state":"TOGGLE"}` {
		t.Errorf("unexpected messages %+v", msgs)
	}

	w = env.do(http.MethodPost, "/zigbee/devices/0xa4c1380002/toggle", `{"seconds":1}`)
	var resp types.SwitchResponse
	decode(t, w, &resp)
	if resp.RevertAt == nil {
		t.Fatal("expected a revert time")
	}
	deadline := time.Now().Add(5 * time.Second)
	for len(pub.all()) < 3 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if n := len(pub.all()); n != 3 {
		t.Errorf("expected toggle back after the delay, got %d messages", n)
	}

	if w := env.do(http.MethodPost, "/zigbee/devices/0xa4c1380002/toggle", `{"seconds":-1}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a negative delay, got %d", w.Code)
	}
}

func TestControl_Unavailable(t *testing.T) {
	env := newTestEnv(t, nil)

	if w := env.do(http.MethodPost, "/zigbee/devices/fridge/state", `{"state":true}`); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a broker, got %d", w.Code)
	}
	if w := env.do(http.MethodPost, "/discovery/start", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a broker, got %d", w.Code)
	}
}

func TestDiscovery(t *testing.T) {
	env, pub, _ := newControlEnv(t)

	w := env.do(http.MethodPost, "/discovery/start", `{"duration_seconds":60}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp types.StartDiscoveryResponse
	decode(t, w, &resp)
	if resp.Status != "pairing_enabled" || resp.DurationSeconds != 60 {
		t.Errorf("unexpected response %+v", resp)
	}
	msgs := pub.all()
	if len(msgs) != 1 || msgs[0].topic != "zigbee2mqtt/bridge/request/permit_join" || msgs[0].payload != `{"time":60,"value":true}` {
		t.Errorf("unexpected messages %+v", msgs)
	}

	w = env.do(http.MethodPost, "/discovery/start", "")
	decode(t, w, &resp)
	if resp.DurationSeconds != 120 {
		t.Errorf("expected default 120s, got %d", resp.DurationSeconds)
	}

	if w := env.do(http.MethodPost, "/discovery/start", `{"duration_seconds":601}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 above 600s, got %d", w.Code)
	}

	w = env.do(http.MethodPost, "/discovery/stop", "")
	var stop types.StopDiscoveryResponse
	decode(t, w, &stop)
	if stop.Status != "pairing_disabled" {
		t.Errorf("unexpected response %+v", stop)
	}
	if msgs := pub.all(); msgs[len(msgs)-1].payload != `{"value":false}` {
		t.Errorf("expected disable payload, got %+v", msgs[len(msgs)-1])
	}
}
