package db

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoActiveProfile = errors.New("no active profile found")

// Config represents the runtime configuration loaded from the database.
type Config struct {
	Profile   *Profile
	Dashboard *Listener
	Camera    *Listener
}

// DashboardAddress returns the dashboard listen address.
func (c *Config) DashboardAddress() string {
	if c.Dashboard == nil {
		return "0.0.0.0:5000"
	}
	return c.Dashboard.Address()
}

// CameraAddress returns the camera relay listen address.
func (c *Config) CameraAddress() string {
	if c.Camera == nil {
		return "0.0.0.0:8765"
	}
	return c.Camera.Address()
}

// Timezone returns the profile timezone.
func (c *Config) Timezone() string {
	if c.Profile == nil {
		return "UTC"
	}
	return c.Profile.Timezone
}

// ActiveConfig loads the configuration for the active profile.
func (db *DB) ActiveConfig(ctx context.Context) (*Config, error) {
	profile, err := db.Profiles().GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}

	config := &Config{Profile: profile}

	config.Dashboard, err = db.Listeners().Get(ctx, profile.ID, ListenerDashboard)
	if err != nil && !errors.Is(err, ErrListenerNotFound) {
		return nil, fmt.Errorf("failed to get dashboard listener: %w", err)
	}
	config.Camera, err = db.Listeners().Get(ctx, profile.ID, ListenerCamera)
	if err != nil && !errors.Is(err, ErrListenerNotFound) {
		return nil, fmt.Errorf("failed to get camera listener: %w", err)
	}

	return config, nil
}
