package dashboard

import (
	"sync"
	"time"
)

// Panel names
const (
	PanelLatest       = "latest"
	PanelHistory      = "history"
	PanelFridge       = "fridge"
	PanelCPU          = "cpu_temperature"
	PanelDevices      = "zigbee_devices"
	PanelZigbeeState  = "zigbee_state"
	PanelHealthErrors = "health_errors"
	PanelSettings     = "settings"
	PanelCamera       = "camera"
)

// Panel is the last content rendered into one area of the dashboard.
type Panel struct {
	Data      any       `json:"data,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Error     string    `json:"error,omitempty"`
	Alert     string    `json:"alert,omitempty"`
}

// Update announces a changed panel.
type Update struct {
	Name  string `json:"name"`
	Panel Panel  `json:"panel"`
}

// View is the display surface. Tasks write panels; subscribers receive
// every change. Subscribers that fall behind miss updates rather than
// blocking writers.
type View struct {
	mu     sync.RWMutex
	panels map[string]Panel
	subs   map[chan Update]struct{}
	now    func() time.Time
}

// NewView creates an empty view.
func NewView() *View {
	return &View{
		panels: make(map[string]Panel),
		subs:   make(map[chan Update]struct{}),
		now:    time.Now,
	}
}

// Set replaces a panel's data and clears its error.
func (v *View) Set(name string, data any) {
	v.update(name, func(p *Panel) { *p = Panel{Data: data} })
}

// SetAlert replaces a panel's data and raises an alert on it.
func (v *View) SetAlert(name string, data any, alert string) {
	v.update(name, func(p *Panel) { *p = Panel{Data: data, Alert: alert} })
}

// SetError marks a panel as failed, keeping its previous data.
func (v *View) SetError(name string, err error) {
	v.update(name, func(p *Panel) { p.Error = err.Error() })
}

func (v *View) update(name string, fn func(p *Panel)) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.panels[name]
	fn(&p)
	p.UpdatedAt = v.now()
	v.panels[name] = p

	u := Update{Name: name, Panel: p}
	for ch := range v.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

// Panel returns one panel.
func (v *View) Panel(name string) (Panel, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	p, ok := v.panels[name]
	return p, ok
}

// Snapshot returns a copy of every panel.
func (v *View) Snapshot() map[string]Panel {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]Panel, len(v.panels))
	for k, p := range v.panels {
		out[k] = p
	}
	return out
}

// Subscribe returns a channel that receives panel updates.
func (v *View) Subscribe() chan Update {
	ch := make(chan Update, 32)
	v.mu.Lock()
	v.subs[ch] = struct{}{}
	v.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscription.
func (v *View) Unsubscribe(ch chan Update) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.subs[ch]; ok {
		delete(v.subs, ch)
		close(ch)
	}
}
