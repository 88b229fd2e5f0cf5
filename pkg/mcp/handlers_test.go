package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/growbox/pkg/db"
	"github.com/urmzd/growbox/pkg/device"
	"github.com/urmzd/growbox/pkg/health"
	"github.com/urmzd/growbox/pkg/settings"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	database, err := db.Open(filepath.Join(dir, "growbox.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	ctx := context.Background()
	if err := database.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	if err := database.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}

	statePath := filepath.Join(dir, "state.json")
	dbPath := filepath.Join(dir, "database.db")
	_ = os.WriteFile(statePath, []byte(`{"0xa4c1380002":{"state":"ON"}}`), 0o600)
	_ = os.WriteFile(dbPath, []byte(`{"type":"Router","ieeeAddr":"0xa4c1380002","lastSeen":1717000000000}`+"\n"), 0o600)
	controller := device.NewFileController(statePath, dbPath)
	t.Cleanup(controller.Close)

	return NewServer(database, controller, settings.NewValidator())
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("expected content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text, res.IsError
}

func TestGetHealth(t *testing.T) {
	s := newTestServer(t)
	text, isErr := call(t, s.handleGetHealth, nil)
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var out GetHealthOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "healthy" || out.Zigbee != "connected" {
		t.Errorf("unexpected health %+v", out)
	}

	ctx := context.Background()
	if _, err := s.db.HealthIssues().Raise(ctx, int(health.CodeSensorStale), db.SeverityWarning, "stale"); err != nil {
		t.Fatal(err)
	}
	text, _ = call(t, s.handleGetHealth, nil)
	out = GetHealthOutput{}
	_ = json.Unmarshal([]byte(text), &out)
	if out.Status != "degraded" || len(out.OpenIssues) != 1 {
		t.Errorf("expected degraded with one issue, got %+v", out)
	}
}

func TestSamples(t *testing.T) {
	s := newTestServer(t)

	if text, isErr := call(t, s.handleGetLatestSample, nil); !isErr {
		t.Errorf("expected tool error without samples, got %s", text)
	}

	m := &db.Measurement{RecordedAt: time.Now().Add(-2 * time.Minute), TemperatureC: 23, Humidity: 55, CO2: 700, TVOC: -1}
	if err := s.db.Measurements().Append(context.Background(), m); err != nil {
		t.Fatal(err)
	}

	text, isErr := call(t, s.handleGetLatestSample, nil)
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var latest GetLatestSampleOutput
	_ = json.Unmarshal([]byte(text), &latest)
	if latest.Sample.TemperatureC != 23 {
		t.Errorf("expected 23°C, got %v", latest.Sample.TemperatureC)
	}

	text, _ = call(t, s.handleGetHistory, map[string]any{"span": "1h"})
	var history GetHistoryOutput
	_ = json.Unmarshal([]byte(text), &history)
	if history.Span != "1h" || history.Count != 1 {
		t.Errorf("unexpected history %+v", history)
	}

	if text, isErr := call(t, s.handleGetHistory, map[string]any{"span": "3h"}); !isErr {
		t.Errorf("expected tool error for bad span, got %s", text)
	}
}

func TestListDevices(t *testing.T) {
	s := newTestServer(t)
	text, isErr := call(t, s.handleListDevices, nil)
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var out ListDevicesOutput
	_ = json.Unmarshal([]byte(text), &out)
	if out.Count != 1 || out.Devices[0].State["state"] != "ON" || out.Devices[0].LastSeen == nil {
		t.Errorf("unexpected devices %+v", out)
	}
}

func TestSetLightTimes(t *testing.T) {
	s := newTestServer(t)

	text, isErr := call(t, s.handleSetLightTimes, map[string]any{"on_time": "07:00", "off_time": "19:30"})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}

	text, _ = call(t, s.handleGetSettings, nil)
	var doc settings.Settings
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Light.On != "07:00" || doc.Light.Off != "19:30" {
		t.Errorf("unexpected light schedule %+v", doc.Light)
	}

	if text, isErr := call(t, s.handleSetLightTimes, map[string]any{"on_time": "7am", "off_time": "19:30"}); !isErr {
		t.Errorf("expected tool error for bad time, got %s", text)
	}
	if text, isErr := call(t, s.handleSetLightTimes, map[string]any{"on_time": "07:00"}); !isErr || !strings.Contains(text, "off_time") {
		t.Errorf("expected missing off_time error, got %s", text)
	}
}

func TestListHealthIssues(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	issues := s.db.HealthIssues()
	_, _ = issues.Raise(ctx, int(health.CodeTemperatureFrozen), db.SeverityError, "frozen")
	_, _ = issues.Raise(ctx, int(health.CodeZigbeeUnhealthy), db.SeverityWarning, "zigbee")
	_, _ = issues.Resolve(ctx, int(health.CodeTemperatureFrozen))

	text, _ := call(t, s.handleListHealthIssues, nil)
	var open ListHealthIssuesOutput
	_ = json.Unmarshal([]byte(text), &open)
	if open.Count != 1 || open.Issues[0].Code != int(health.CodeZigbeeUnhealthy) {
		t.Errorf("unexpected open issues %+v", open)
	}

	text, _ = call(t, s.handleListHealthIssues, map[string]any{"open_only": false, "limit": 10})
	var all ListHealthIssuesOutput
	_ = json.Unmarshal([]byte(text), &all)
	if all.Count != 2 {
		t.Errorf("expected 2 issues, got %+v", all)
	}
}
