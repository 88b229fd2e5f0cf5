package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Issue severities
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// HealthIssue is a condition raised by the health monitor. An issue is
// open until ResolvedAt is set.
type HealthIssue struct {
	ID         int64      `json:"id"`
	Code       int        `json:"code"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	RaisedAt   time.Time  `json:"raised_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// HealthIssueStore tracks health issues. At most one issue per code is open.
type HealthIssueStore interface {
	// Raise opens an issue for code unless one is already open. It reports
	// whether a new issue was created.
	Raise(ctx context.Context, code int, severity, message string) (bool, error)
	// Resolve closes the open issue for code, if any.
	Resolve(ctx context.Context, code int) (bool, error)
	Open(ctx context.Context) ([]HealthIssue, error)
	Recent(ctx context.Context, limit int) ([]HealthIssue, error)
}

// HealthIssues returns a HealthIssueStore for this database.
func (db *DB) HealthIssues() HealthIssueStore {
	return &healthIssueStore{db: db}
}

type healthIssueStore struct {
	db *DB
}

const issueColumns = `id, code, severity, message, raised_at, resolved_at`

func (s *healthIssueStore) Raise(ctx context.Context, code int, severity, message string) (bool, error) {
	created := false
	err := s.db.Tx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM health_issues WHERE code = ? AND resolved_at IS NULL LIMIT 1
		`, code).Scan(&id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO health_issues (code, severity, message, raised_at) VALUES (?, ?, ?, ?)
		`, code, severity, message, time.Now().UTC().Format(time.DateTime))
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to raise issue %d: %w", code, err)
	}
	return created, nil
}

func (s *healthIssueStore) Resolve(ctx context.Context, code int) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE health_issues SET resolved_at = ? WHERE code = ? AND resolved_at IS NULL
	`, time.Now().UTC().Format(time.DateTime), code)
	if err != nil {
		return false, fmt.Errorf("failed to resolve issue %d: %w", code, err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (s *healthIssueStore) Open(ctx context.Context) ([]HealthIssue, error) {
	return s.query(ctx, `SELECT `+issueColumns+` FROM health_issues WHERE resolved_at IS NULL ORDER BY code`)
}

func (s *healthIssueStore) Recent(ctx context.Context, limit int) ([]HealthIssue, error) {
	return s.query(ctx, `SELECT `+issueColumns+` FROM health_issues ORDER BY id DESC LIMIT ?`, limit)
}

func (s *healthIssueStore) query(ctx context.Context, q string, args ...any) ([]HealthIssue, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	issues := []HealthIssue{}
	for rows.Next() {
		var i HealthIssue
		var raisedAt string
		var resolvedAt sql.NullString
		if err := rows.Scan(&i.ID, &i.Code, &i.Severity, &i.Message, &raisedAt, &resolvedAt); err != nil {
			return nil, err
		}
		i.RaisedAt, _ = time.ParseInLocation(time.DateTime, raisedAt, time.UTC)
		if resolvedAt.Valid {
			t, _ := time.ParseInLocation(time.DateTime, resolvedAt.String, time.UTC)
			i.ResolvedAt = &t
		}
		issues = append(issues, i)
	}
	return issues, rows.Err()
}
