package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNoMeasurements = errors.New("no measurements recorded")

// HistoryBucket is the sampling interval of History.
const HistoryBucket = 10 * time.Minute

// Measurement is one sensor sample. TVOC is -1 when the board has no VOC
// sensor.
type Measurement struct {
	ID           int64     `json:"id"`
	RecordedAt   time.Time `json:"recorded_at"`
	TemperatureC float64   `json:"temperature_c"`
	TemperatureF float64   `json:"temperature_f"`
	Humidity     float64   `json:"humidity"`
	CO2          float64   `json:"co2"`
	TVOC         float64   `json:"tvoc"`
}

// Row returns the measurement in the dashboard's row shape:
// [temperature, humidity, co2, tvoc].
func (m Measurement) Row() [4]float64 {
	return [4]float64{m.TemperatureC, m.Humidity, m.CO2, m.TVOC}
}

// MeasurementStore provides access to the sample log.
type MeasurementStore interface {
	Append(ctx context.Context, m *Measurement) error
	Latest(ctx context.Context) (*Measurement, error)
	// History returns the first sample of every HistoryBucket since the
	// given time, oldest first.
	History(ctx context.Context, since time.Time) ([]Measurement, error)
	// Recent returns the last n samples, newest first.
	Recent(ctx context.Context, n int) ([]Measurement, error)
}

// Measurements returns a MeasurementStore for this database.
func (db *DB) Measurements() MeasurementStore {
	return &measurementStore{db: db}
}

type measurementStore struct {
	db *DB
}

const measurementColumns = `id, recorded_at, temperature_c, temperature_f, humidity, co2, tvoc`

func scanMeasurement(row interface{ Scan(...any) error }) (Measurement, error) {
	var m Measurement
	var recordedAt string
	if err := row.Scan(&m.ID, &recordedAt, &m.TemperatureC, &m.TemperatureF, &m.Humidity, &m.CO2, &m.TVOC); err != nil {
		return Measurement{}, err
	}
	m.RecordedAt, _ = time.ParseInLocation(time.DateTime, recordedAt, time.UTC)
	return m, nil
}

func (s *measurementStore) Append(ctx context.Context, m *Measurement) error {
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now()
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO measurements (recorded_at, temperature_c, temperature_f, humidity, co2, tvoc)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.RecordedAt.UTC().Format(time.DateTime), m.TemperatureC, m.TemperatureF, m.Humidity, m.CO2, m.TVOC)
	if err != nil {
		return fmt.Errorf("failed to append measurement: %w", err)
	}
	m.ID, err = result.LastInsertId()
	return err
}

func (s *measurementStore) Latest(ctx context.Context) (*Measurement, error) {
	m, err := scanMeasurement(s.db.QueryRowContext(ctx,
		`SELECT `+measurementColumns+` FROM measurements ORDER BY recorded_at DESC, id DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoMeasurements
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *measurementStore) History(ctx context.Context, since time.Time) ([]Measurement, error) {
	return s.query(ctx, `
		SELECT `+measurementColumns+` FROM measurements
		WHERE id IN (
			SELECT MIN(id) FROM measurements
			WHERE recorded_at >= ?
			GROUP BY CAST(strftime('%s', recorded_at) AS INTEGER) / ?
		)
		ORDER BY recorded_at, id
	`, since.UTC().Format(time.DateTime), int64(HistoryBucket/time.Second))
}

func (s *measurementStore) Recent(ctx context.Context, n int) ([]Measurement, error) {
	return s.query(ctx, `
		SELECT `+measurementColumns+` FROM measurements
		ORDER BY recorded_at DESC, id DESC LIMIT ?
	`, n)
}

func (s *measurementStore) query(ctx context.Context, q string, args ...any) ([]Measurement, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Measurement{}
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
