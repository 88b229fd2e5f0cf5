package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urmzd/growbox/pkg/settings"
)

var ErrSettingsNotFound = errors.New("settings not found")

// SettingsStore persists the settings document of each profile.
type SettingsStore interface {
	Get(ctx context.Context, profileID int64) (settings.Settings, error)
	Put(ctx context.Context, profileID int64, s settings.Settings) error
}

// Settings returns a SettingsStore for this database.
func (db *DB) Settings() SettingsStore {
	return &settingsStore{db: db}
}

type settingsStore struct {
	db *DB
}

func (s *settingsStore) Get(ctx context.Context, profileID int64) (settings.Settings, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM settings WHERE profile_id = ?`, profileID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Settings{}, ErrSettingsNotFound
	}
	if err != nil {
		return settings.Settings{}, err
	}

	var out settings.Settings
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return settings.Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return out, nil
}

func (s *settingsStore) Put(ctx context.Context, profileID int64, doc settings.Settings) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (profile_id, document) VALUES (?, ?)
		ON CONFLICT (profile_id) DO UPDATE SET document = excluded.document, updated_at = datetime('now')
	`, profileID, string(raw))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
