package db

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/urmzd/growbox/pkg/settings"
)

// Bootstrap initializes the database with default data if it's empty.
// It creates the active profile, the dashboard and camera listeners and
// the default settings document. Called after Migrate.
func (db *DB) Bootstrap(ctx context.Context) error {
	// Check if any profiles exist
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check profiles: %w", err)
	}

	if count > 0 {
		return nil // Already bootstrapped
	}

	// First run - create defaults
	timezone := detectTimezone()

	// Create default profile
	result, err := db.ExecContext(ctx, `
		INSERT INTO profiles (name, timezone, is_active)
		VALUES (?, ?, 1)
	`, "default", timezone)
	if err != nil {
		return fmt.Errorf("failed to create default profile: %w", err)
	}

	profileID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get profile ID: %w", err)
	}

	for _, l := range []Listener{
		{ProfileID: profileID, Name: ListenerDashboard, Port: 5000},
		{ProfileID: profileID, Name: ListenerCamera, Port: 8765},
	} {
		if err := db.Listeners().Upsert(ctx, &l); err != nil {
			return fmt.Errorf("failed to create default listener: %w", err)
		}
	}

	if err := db.Settings().Put(ctx, profileID, settings.Defaults()); err != nil {
		return fmt.Errorf("failed to store default settings: %w", err)
	}

	return nil
}

// detectTimezone attempts to detect the system timezone.
func detectTimezone() string {
	switch runtime.GOOS {
	case "linux":
		// Try timedatectl first (systemd)
		out, err := exec.Command("timedatectl", "show", "--property=Timezone", "--value").Output()
		if err == nil {
			return strings.TrimSpace(string(out))
		}

		// Fallback: /etc/timezone file
		if data, err := os.ReadFile("/etc/timezone"); err == nil {
			return strings.TrimSpace(string(data))
		}

		if tz := zoneFromLocaltime(); tz != "" {
			return tz
		}
	default:
		if tz := zoneFromLocaltime(); tz != "" {
			return tz
		}
	}

	return "UTC"
}

func zoneFromLocaltime() string {
	link, err := os.Readlink("/etc/localtime")
	if err != nil {
		return ""
	}
	if idx := strings.Index(link, "zoneinfo/"); idx != -1 {
		return link[idx+9:]
	}
	return ""
}

// NeedsBootstrap returns true if the database needs initial setup.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
