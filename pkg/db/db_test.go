package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/urmzd/growbox/pkg/settings"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "growbox.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx := context.Background()
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := d.Bootstrap(ctx); err != nil {
		t.Fatalf("failed to bootstrap: %v", err)
	}
	return d
}

func TestMigrate_Idempotent(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
	v, err := d.SchemaVersion(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v != currentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", currentSchemaVersion, v)
	}
}

func TestBootstrap_Defaults(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	needs, err := d.NeedsBootstrap(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if needs {
		t.Error("expected bootstrap to be done")
	}

	cfg, err := d.ActiveConfig(ctx)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.DashboardAddress() != "0.0.0.0:5000" {
		t.Errorf("expected dashboard on 0.0.0.0:5000, got %s", cfg.DashboardAddress())
	}
	if cfg.CameraAddress() != "0.0.0.0:8765" {
		t.Errorf("expected camera on 0.0.0.0:8765, got %s", cfg.CameraAddress())
	}

	s, err := d.Settings().Get(ctx, cfg.Profile.ID)
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	if s != settings.Defaults() {
		t.Errorf("expected default settings, got %+v", s)
	}

	// Bootstrapping again must not add a second profile
	if err := d.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}
	profiles, err := d.Profiles().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 {
		t.Errorf("expected 1 profile, got %d", len(profiles))
	}
}

func TestProfiles_SetActive(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	p := &Profile{Name: "greenhouse", Timezone: "Europe/Zurich"}
	if err := d.Profiles().Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := d.Profiles().SetActive(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	active, err := d.Profiles().GetActive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if active.Name != "greenhouse" {
		t.Errorf("expected greenhouse active, got %s", active.Name)
	}

	if err := d.Profiles().SetActive(ctx, 999); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}

	// ActiveConfig falls back to default addresses without listeners
	cfg, err := d.ActiveConfig(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dashboard != nil {
		t.Errorf("expected no dashboard listener, got %+v", cfg.Dashboard)
	}
	if cfg.DashboardAddress() != "0.0.0.0:5000" {
		t.Errorf("expected fallback address, got %s", cfg.DashboardAddress())
	}
}

func TestListeners_Upsert(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	cfg, _ := d.ActiveConfig(ctx)

	l := &Listener{ProfileID: cfg.Profile.ID, Name: ListenerDashboard, Host: "127.0.0.1", Port: 9000}
	if err := d.Listeners().Upsert(ctx, l); err != nil {
		t.Fatal(err)
	}
	got, err := d.Listeners().Get(ctx, cfg.Profile.ID, ListenerDashboard)
	if err != nil {
		t.Fatal(err)
	}
	if got.Address() != "127.0.0.1:9000" {
		t.Errorf("expected 127.0.0.1:9000, got %s", got.Address())
	}

	if _, err := d.Listeners().Get(ctx, cfg.Profile.ID, "nope"); !errors.Is(err, ErrListenerNotFound) {
		t.Errorf("expected ErrListenerNotFound, got %v", err)
	}
}

func TestSettings_PutGet(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	cfg, _ := d.ActiveConfig(ctx)

	s := settings.Defaults()
	s.Light = settings.LightSchedule{On: "06:30", Off: "20:15"}
	if err := d.Settings().Put(ctx, cfg.Profile.ID, s); err != nil {
		t.Fatal(err)
	}
	got, err := d.Settings().Get(ctx, cfg.Profile.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Light.On != "06:30" || got.Light.Off != "20:15" {
		t.Errorf("expected updated light schedule, got %+v", got.Light)
	}

	if _, err := d.Settings().Get(ctx, 999); !errors.Is(err, ErrSettingsNotFound) {
		t.Errorf("expected ErrSettingsNotFound, got %v", err)
	}
}

func TestMeasurements_LatestEmpty(t *testing.T) {
	d := openTestDB(t)
	if _, err := d.Measurements().Latest(context.Background()); !errors.Is(err, ErrNoMeasurements) {
		t.Errorf("expected ErrNoMeasurements, got %v", err)
	}
}

func TestMeasurements_HistoryBuckets(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	store := d.Measurements()

	base := time.Now().UTC().Truncate(HistoryBucket).Add(-time.Hour)
	offsets := []time.Duration{
		0,
		5 * time.Second,
		10 * time.Minute,
		10*time.Minute + 5*time.Second,
		21 * time.Minute,
	}
	for i, off := range offsets {
		m := &Measurement{RecordedAt: base.Add(off), TemperatureC: float64(20 + i), Humidity: 50, CO2: 600, TVOC: -1}
		if err := store.Append(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := store.History(ctx, base)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{20, 22, 24}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, w := range want {
		if rows[i].TemperatureC != w {
			t.Errorf("row %d: expected %.0f, got %.0f", i, w, rows[i].TemperatureC)
		}
	}

	rows, err = store.History(ctx, base.Add(15*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 row after 15m, got %d", len(rows))
	}

	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest.TemperatureC != 24 {
		t.Errorf("expected latest 24, got %.0f", latest.TemperatureC)
	}
	if latest.Row() != [4]float64{24, 50, 600, -1} {
		t.Errorf("unexpected row %v", latest.Row())
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].TemperatureC != 24 || recent[1].TemperatureC != 23 {
		t.Errorf("unexpected recent samples %+v", recent)
	}
}

func TestHealthIssues_RaiseResolve(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	store := d.HealthIssues()

	created, err := store.Raise(ctx, 1006, SeverityError, "overheated")
	if err != nil || !created {
		t.Fatalf("expected new issue, got created=%v err=%v", created, err)
	}
	created, err = store.Raise(ctx, 1006, SeverityError, "overheated again")
	if err != nil || created {
		t.Errorf("expected duplicate raise to be a no-op, got created=%v err=%v", created, err)
	}
	if _, err := store.Raise(ctx, 1003, SeverityWarning, "zigbee"); err != nil {
		t.Fatal(err)
	}

	open, err := store.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 2 || open[0].Code != 1003 || open[1].Code != 1006 {
		t.Errorf("unexpected open issues %+v", open)
	}

	resolved, err := store.Resolve(ctx, 1006)
	if err != nil || !resolved {
		t.Errorf("expected issue resolved, got %v %v", resolved, err)
	}
	if resolved, _ := store.Resolve(ctx, 1006); resolved {
		t.Error("expected second resolve to be a no-op")
	}

	open, _ = store.Open(ctx)
	if len(open) != 1 {
		t.Errorf("expected 1 open issue, got %d", len(open))
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[1].ResolvedAt == nil {
		t.Errorf("expected resolved issue in history, got %+v", recent)
	}
}
