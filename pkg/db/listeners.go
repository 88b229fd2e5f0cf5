package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrListenerNotFound = errors.New("listener not found")

// Listener names
const (
	ListenerDashboard = "dashboard"
	ListenerCamera    = "camera"
)

// Listener is the address one of the box's HTTP processes binds to.
type Listener struct {
	ID        int64
	ProfileID int64
	Name      string
	Host      string
	Port      int
}

// Address returns the listen address in host:port format.
func (l *Listener) Address() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// ListenerStore provides listener configuration operations.
type ListenerStore interface {
	Get(ctx context.Context, profileID int64, name string) (*Listener, error)
	Upsert(ctx context.Context, l *Listener) error
}

// Listeners returns a ListenerStore for this database.
func (db *DB) Listeners() ListenerStore {
	return &listenerStore{db: db}
}

type listenerStore struct {
	db *DB
}

func (s *listenerStore) Get(ctx context.Context, profileID int64, name string) (*Listener, error) {
	l := &Listener{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, name, host, port
		FROM listeners WHERE profile_id = ? AND name = ?
	`, profileID, name).Scan(&l.ID, &l.ProfileID, &l.Name, &l.Host, &l.Port)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListenerNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *listenerStore) Upsert(ctx context.Context, l *Listener) error {
	if l.Host == "" {
		l.Host = "0.0.0.0"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO listeners (profile_id, name, host, port)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (profile_id, name) DO UPDATE SET host = excluded.host, port = excluded.port
	`, l.ProfileID, l.Name, l.Host, l.Port)
	if err != nil {
		return fmt.Errorf("failed to save listener %s: %w", l.Name, err)
	}
	return nil
}
