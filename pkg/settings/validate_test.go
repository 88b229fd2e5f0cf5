package settings

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func defaultsPayload(t *testing.T) map[string]any {
	t.Helper()
	raw, err := json.Marshal(Defaults())
	if err != nil {
		t.Fatal(err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatal(err)
	}
	return payload
}

func TestValidateSettings_Defaults(t *testing.T) {
	v := NewValidator()
	if err := v.ValidateSettings(defaultsPayload(t)); err != nil {
		t.Errorf("expected defaults to be valid, got: %v", err)
	}
}

func TestValidateSettings_InvalidFridgeMode(t *testing.T) {
	v := NewValidator()
	payload := defaultsPayload(t)
	payload["fridge"] = map[string]any{"mode": "freeze"}

	err := v.ValidateSettings(payload)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for invalid fridge mode, got %v", err)
	}
}

func TestValidateSettings_BadClock(t *testing.T) {
	v := NewValidator()
	payload := defaultsPayload(t)
	payload["light"] = map[string]any{"on": "25:00", "off": "22:00"}

	if err := v.ValidateSettings(payload); err == nil {
		t.Error("expected validation error for out-of-range clock time")
	}
}

func TestValidateSettings_HumidityOutOfRange(t *testing.T) {
	v := NewValidator()
	payload := defaultsPayload(t)
	payload["humidity"] = map[string]any{"target": float64(140), "hysteresis": float64(5)}

	if err := v.ValidateSettings(payload); err == nil {
		t.Error("expected validation error for humidity above 100")
	}
}

func TestValidateSettings_UnknownSection(t *testing.T) {
	v := NewValidator()
	payload := defaultsPayload(t)
	payload["pump"] = map[string]any{"power": float64(3)}

	if err := v.ValidateSettings(payload); err == nil {
		t.Error("expected validation error for unknown section")
	}
}

func TestValidateSettings_MissingSection(t *testing.T) {
	v := NewValidator()
	payload := defaultsPayload(t)
	delete(payload, "co2")

	if err := v.ValidateSettings(payload); err == nil {
		t.Error("expected validation error for missing co2 section")
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	v := NewValidator()

	// Empty schema means no validation
	err := v.Validate(json.RawMessage(`{}`), map[string]any{
		"anything": "goes",
	})
	if err != nil {
		t.Errorf("empty schema should skip validation, got: %v", err)
	}
	if err := v.Validate(nil, map[string]any{"anything": "goes"}); err != nil {
		t.Errorf("nil schema should skip validation, got: %v", err)
	}
}

func TestValidate_CachesSchema(t *testing.T) {
	v := NewValidator()

	if err := v.ValidateSettings(defaultsPayload(t)); err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateSettings(defaultsPayload(t)); err != nil {
		t.Fatal(err)
	}

	v.mu.RLock()
	cacheSize := len(v.cache)
	v.mu.RUnlock()
	if cacheSize != 1 {
		t.Errorf("expected 1 cached schema, got %d", cacheSize)
	}
}

func TestDecode_RoundTripsDefaults(t *testing.T) {
	raw, _ := json.Marshal(Defaults())

	s, err := Decode(NewValidator(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Fridge.Mode != FridgeModeAuto || s.Light.On != "08:00" {
		t.Errorf("unexpected decoded settings: %+v", s)
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode(NewValidator(), []byte(`{"device_name":`))
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("08:30")
	if err != nil {
		t.Fatal(err)
	}
	if d != 8*time.Hour+30*time.Minute {
		t.Errorf("expected 8h30m, got %s", d)
	}
	if _, err := ParseClock("8.30"); !errors.Is(err, ErrInvalidTime) {
		t.Errorf("expected ErrInvalidTime, got %v", err)
	}
}

func TestLightOn(t *testing.T) {
	day := LightSchedule{On: "08:00", Off: "22:00"}
	at := func(h, m int) time.Time { return time.Date(2024, 5, 1, h, m, 0, 0, time.UTC) }

	if on, _ := day.LightOn(at(12, 0)); !on {
		t.Error("expected light on at noon")
	}
	if on, _ := day.LightOn(at(23, 0)); on {
		t.Error("expected light off at 23:00")
	}

	night := LightSchedule{On: "20:00", Off: "06:00"}
	if on, _ := night.LightOn(at(2, 0)); !on {
		t.Error("expected overnight window to include 02:00")
	}
	if on, _ := night.LightOn(at(12, 0)); on {
		t.Error("expected overnight window to exclude noon")
	}

	if _, err := (LightSchedule{On: "x", Off: "06:00"}).LightOn(at(1, 0)); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestTemperatureTarget(t *testing.T) {
	s := Defaults()
	at := func(h int) time.Time { return time.Date(2024, 5, 1, h, 0, 0, 0, time.UTC) }

	if got := s.TemperatureTarget(at(12)); got != s.Temperature.Day {
		t.Errorf("expected day target %v, got %v", s.Temperature.Day, got)
	}
	if got := s.TemperatureTarget(at(3)); got != s.Temperature.Night {
		t.Errorf("expected night target %v, got %v", s.Temperature.Night, got)
	}

	s.Light.On = "bad"
	if got := s.TemperatureTarget(at(12)); got != s.Temperature.Night {
		t.Errorf("expected night target for a broken schedule, got %v", got)
	}
}
