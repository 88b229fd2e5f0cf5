package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/data/now", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[24.5,60,800,-1]]`))
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("span") != "4h" {
			http.Error(w, `{"error":"invalid_span","message":"bad span"}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`[[24,60,800,-1],[24.2,61,810,-1]]`))
	})
	mux.HandleFunc("/data/rpi-temperature", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cpu_thermal":[["",52.1,null,110]]}`))
	})
	mux.HandleFunc("/fridge_state", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`true`))
	})
	mux.HandleFunc("/zigbee/devices", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"ieeeAddr":"0x1"},{"ieeeAddr":"0x2"}]`))
	})
	mux.HandleFunc("/zigbee/state", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"zigbee_unavailable","message":"failed to read state.json"}`))
	})
	mux.HandleFunc("/health/errors", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"warnings":[{"code":1004}],"errors":[]}`))
	})
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"device_name":"growbox"}`))
	})
	mux.HandleFunc("/snapshot.jpg", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF, 0xD9})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Fetchers(t *testing.T) {
	srv := newTestAPI(t)
	c := NewClient(srv.URL+"/", WithSnapshotURL(srv.URL+"/snapshot.jpg"))
	ctx := context.Background()

	row, err := c.Latest(ctx)
	if err != nil || len(row) != 4 || row[0] != 24.5 {
		t.Errorf("unexpected latest %v %v", row, err)
	}

	rows, err := c.History(ctx, Span4h)
	if err != nil || len(rows) != 2 {
		t.Errorf("unexpected history %v %v", rows, err)
	}

	cpu, err := c.CPUTemperature(ctx)
	if err != nil || cpu != 52.1 {
		t.Errorf("unexpected cpu temperature %v %v", cpu, err)
	}

	on, err := c.FridgeState(ctx)
	if err != nil || !on {
		t.Errorf("expected fridge on, got %v %v", on, err)
	}

	devices, err := c.Devices(ctx)
	if err != nil || len(devices) != 2 {
		t.Errorf("unexpected devices %v %v", devices, err)
	}

	lists, err := c.HealthErrors(ctx)
	if err != nil || len(lists.Warnings) != 1 || len(lists.Errors) != 0 {
		t.Errorf("unexpected health lists %+v %v", lists, err)
	}

	doc, err := c.Settings(ctx)
	if err != nil || !strings.Contains(string(doc), "growbox") {
		t.Errorf("unexpected settings %s %v", doc, err)
	}

	img, err := c.Snapshot(ctx, time.Unix(1700000000, 0))
	if err != nil || len(img) != 4 {
		t.Errorf("unexpected snapshot %v %v", img, err)
	}
}

func TestClient_ErrorResponses(t *testing.T) {
	srv := newTestAPI(t)
	c := NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.ZigbeeState(ctx)
	if err == nil || !strings.Contains(err.Error(), "failed to read state.json") {
		t.Errorf("expected server message in error, got %v", err)
	}

	if _, err := c.History(ctx, Span1h); err == nil {
		t.Error("expected error for rejected span")
	}

	if _, err := c.Snapshot(ctx, time.Now()); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData without snapshot URL, got %v", err)
	}
}

func TestClient_SessionEndToEnd(t *testing.T) {
	srv := newTestAPI(t)
	f := NewClient(srv.URL, WithSnapshotURL(srv.URL+"/snapshot.jpg"))
	s, _, _ := newTestSession(t, newFakeFetcher())
	s.fetch = f

	if err := s.SelectTab(TabEnvironment); err != nil {
		t.Fatal(err)
	}
	p, ok := s.View().Panel(PanelLatest)
	if !ok || p.Error != "" {
		t.Errorf("expected latest panel from API, got %+v", p)
	}
	p, _ = s.View().Panel(PanelHistory)
	if p.Error == "" {
		t.Error("expected history error for the default 1h span")
	}
	s.Close()
}
