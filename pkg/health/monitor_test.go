package health

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/urmzd/growbox/pkg/db"
	"github.com/urmzd/growbox/pkg/device"
	"github.com/urmzd/growbox/pkg/sensor"
	"github.com/urmzd/growbox/pkg/settings"
)

type fakeReadings struct {
	last     sensor.Reading
	hasLast  bool
	valid    sensor.Sample
	hasValid bool
}

func (f *fakeReadings) Last() (sensor.Reading, bool)     { return f.last, f.hasLast }
func (f *fakeReadings) LastValid() (sensor.Sample, bool) { return f.valid, f.hasValid }

func (f *fakeReadings) set(temp float64, at time.Time) {
	f.valid = sensor.Sample{Temperature: temp, Humidity: 60, CO2: 800, TakenAt: at}
	f.hasValid = true
	f.last = sensor.Reading{Sample: f.valid, At: at}
	f.hasLast = true
}

type fakeDevices struct {
	connected bool
	err       error
}

func (f *fakeDevices) IsConnected() bool { return f.connected }
func (f *fakeDevices) ListDevices(ctx context.Context) ([]device.Device, error) {
	return nil, f.err
}

type memIssues struct {
	open map[int]string
}

func newMemIssues() *memIssues { return &memIssues{open: make(map[int]string)} }

func (m *memIssues) Raise(ctx context.Context, code int, severity, message string) (bool, error) {
	if _, ok := m.open[code]; ok {
		return false, nil
	}
	m.open[code] = severity
	return true, nil
}

func (m *memIssues) Resolve(ctx context.Context, code int) (bool, error) {
	_, ok := m.open[code]
	delete(m.open, code)
	return ok, nil
}

var noon = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Interval:       5 * time.Second,
		StaleAfter:     120 * time.Second,
		FrozenLimit:    60,
		OverheatC:      80,
		OverheatMargin: 8,
	}
}

func newTestMonitor(r *fakeReadings, d *fakeDevices, issues *memIssues, opts ...Option) *Monitor {
	base := []Option{
		WithClock(func() time.Time { return noon }),
		WithLocation(time.UTC),
		WithSettings(func(context.Context) (settings.Settings, error) {
			s := settings.Defaults()
			s.Temperature.Day = 25
			s.Temperature.Night = 20
			return s, nil
		}),
	}
	return NewMonitor(testConfig(), r, d, issues, append(base, opts...)...)
}

func TestCheck_Healthy(t *testing.T) {
	r := &fakeReadings{}
	r.set(25, noon)
	issues := newMemIssues()
	m := newTestMonitor(r, &fakeDevices{connected: true}, issues)

	report, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Healthy || len(report.Conditions) != 0 {
		t.Errorf("expected healthy report, got %+v", report)
	}
	if len(issues.open) != 0 {
		t.Errorf("expected no open issues, got %v", issues.open)
	}
}

func TestCheck_TimestampMissing(t *testing.T) {
	issues := newMemIssues()
	m := newTestMonitor(&fakeReadings{}, &fakeDevices{connected: true}, issues)

	report, _ := m.Check(context.Background())
	if report.Healthy {
		t.Error("expected unhealthy without samples")
	}
	if _, ok := issues.open[int(CodeTimestampMissing)]; !ok {
		t.Errorf("expected %d open, got %v", CodeTimestampMissing, issues.open)
	}
}

func TestCheck_InvalidTemperature(t *testing.T) {
	r := &fakeReadings{}
	r.set(25, noon)
	r.last = sensor.Reading{Err: fmt.Errorf("sample: %w", sensor.ErrInvalidSample), At: noon}
	issues := newMemIssues()
	m := newTestMonitor(r, &fakeDevices{connected: true}, issues)

	report, _ := m.Check(context.Background())
	if len(report.Conditions) != 1 || report.Conditions[0].Code != CodeTemperatureInvalid {
		t.Errorf("expected only %d, got %+v", CodeTemperatureInvalid, report.Conditions)
	}
	if issues.open[int(CodeTemperatureInvalid)] != db.SeverityError {
		t.Errorf("expected error severity, got %q", issues.open[int(CodeTemperatureInvalid)])
	}
}

func TestCheck_StaleSensorData(t *testing.T) {
	r := &fakeReadings{}
	r.set(25, noon.Add(-121*time.Second))
	issues := newMemIssues()
	m := newTestMonitor(r, &fakeDevices{connected: true}, issues)

	_, _ = m.Check(context.Background())
	if issues.open[int(CodeSensorStale)] != db.SeverityWarning {
		t.Errorf("expected stale warning, got %v", issues.open)
	}

	// Fresh data resolves the issue
	r.set(25.2, noon)
	_, _ = m.Check(context.Background())
	if _, ok := issues.open[int(CodeSensorStale)]; ok {
		t.Error("expected stale issue resolved")
	}
}

func TestCheck_ZigbeeUnhealthy(t *testing.T) {
	r := &fakeReadings{}
	r.set(25, noon)
	issues := newMemIssues()
	d := &fakeDevices{connected: true, err: device.ErrMalformed}
	m := newTestMonitor(r, d, issues)

	_, _ = m.Check(context.Background())
	if issues.open[int(CodeZigbeeUnhealthy)] != db.SeverityWarning {
		t.Errorf("expected zigbee warning, got %v", issues.open)
	}

	d.err = nil
	d.connected = false
	report, _ := m.Check(context.Background())
	if len(report.Conditions) != 1 || report.Conditions[0].Message != "zigbee2mqtt data unavailable" {
		t.Errorf("unexpected conditions %+v", report.Conditions)
	}
}

func TestCheck_FrozenTemperature(t *testing.T) {
	r := &fakeReadings{}
	r.set(25, noon)
	issues := newMemIssues()
	m := newTestMonitor(r, &fakeDevices{connected: true}, issues)

	for i := 0; i < 61; i++ {
		_, _ = m.Check(context.Background())
	}
	if _, ok := issues.open[int(CodeTemperatureFrozen)]; ok {
		t.Fatal("expected no frozen issue at the limit")
	}
	_, _ = m.Check(context.Background())
	if _, ok := issues.open[int(CodeTemperatureFrozen)]; !ok {
		t.Error("expected frozen issue past the limit")
	}

	r.set(25.1, noon)
	_, _ = m.Check(context.Background())
	if _, ok := issues.open[int(CodeTemperatureFrozen)]; ok {
		t.Error("expected frozen issue resolved after change")
	}
}

func TestCheck_OverheatHysteresis(t *testing.T) {
	r := &fakeReadings{}
	issues := newMemIssues()
	m := newTestMonitor(r, &fakeDevices{connected: true}, issues)

	steps := []struct {
		temp float64
		want bool
	}{
		{34, true},  // above day target + margin
		{33, true},  // inside the release band
		{32, false}, // released
		{33, false}, // at the limit, not above
	}
	for _, s := range steps {
		r.set(s.temp, noon)
		report, _ := m.Check(context.Background())
		if report.Overheated != s.want {
			t.Errorf("at %.0f°C: expected overheated=%v, got %v", s.temp, s.want, report.Overheated)
		}
	}
}

func TestCheck_NightTarget(t *testing.T) {
	r := &fakeReadings{}
	midnight := time.Date(2024, 6, 1, 0, 30, 0, 0, time.UTC)
	r.set(29, midnight)
	m := newTestMonitor(r, &fakeDevices{connected: true}, newMemIssues(),
		WithClock(func() time.Time { return midnight }))

	report, _ := m.Check(context.Background())
	if !report.Overheated {
		t.Error("expected overheat against the night target")
	}
}

func TestCheck_BoardOverheat(t *testing.T) {
	r := &fakeReadings{}
	r.set(25, noon)
	issues := newMemIssues()
	m := newTestMonitor(r, &fakeDevices{connected: true}, issues,
		WithCPUTemperature(func() (float64, error) { return 82.5, nil }))

	report, _ := m.Check(context.Background())
	if !report.Overheated {
		t.Error("expected board overheat")
	}
	if _, ok := issues.open[int(CodeOverheated)]; !ok {
		t.Error("expected overheat issue")
	}
	if m.Last().CheckedAt != noon {
		t.Errorf("expected last report at noon, got %s", m.Last().CheckedAt)
	}
}

type failingIssues struct{ memIssues }

func (f *failingIssues) Resolve(ctx context.Context, code int) (bool, error) {
	return false, errors.New("disk full")
}

func TestCheck_StoreErrorsJoined(t *testing.T) {
	r := &fakeReadings{}
	r.set(25, noon)
	issues := &failingIssues{memIssues: *newMemIssues()}
	m := NewMonitor(testConfig(), r, &fakeDevices{connected: true}, issues, WithClock(func() time.Time { return noon }))

	if err := m.Task().Run(context.Background()); err == nil {
		t.Error("expected store error from task")
	}
}

func TestCode_Strings(t *testing.T) {
	if CodeOverheated.String() != "SYSTEM_OVERHEATED" {
		t.Errorf("unexpected name %s", CodeOverheated)
	}
	if Code(42).String() != "UNKNOWN" {
		t.Errorf("unexpected name %s", Code(42))
	}
	if CodeSensorStale.Severity() != db.SeverityWarning || CodeTimestampMissing.Severity() != db.SeverityError {
		t.Error("unexpected severities")
	}
}
