package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/urmzd/growbox/pkg/db"
	"github.com/urmzd/growbox/pkg/taskgroup"
)

// Store receives validated samples.
type Store interface {
	Append(ctx context.Context, m *db.Measurement) error
}

// Reading is the outcome of the most recent sampling attempt.
type Reading struct {
	Sample Sample
	Err    error
	At     time.Time
}

// Sampler reads the source periodically and appends each valid sample to
// the store.
type Sampler struct {
	source   Source
	store    Store
	interval time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	last    Reading
	lastOK  Sample
	hasLast bool
	hasOK   bool
}

// NewSampler creates a sampler with the given period.
func NewSampler(source Source, store Store, interval time.Duration) *Sampler {
	return &Sampler{
		source:   source,
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Task returns the periodic sampling task.
func (s *Sampler) Task() taskgroup.Task {
	return taskgroup.Task{Name: "sample", Period: s.interval, Run: s.Sample}
}

// Sample takes one reading and records it.
func (s *Sampler) Sample(ctx context.Context) error {
	sample, err := s.source.Read(ctx)
	if err == nil {
		err = sample.Validate()
	}
	if err != nil {
		s.record(Reading{Sample: sample, Err: err, At: s.now()})
		return fmt.Errorf("sample: %w", err)
	}
	if sample.TakenAt.IsZero() {
		sample.TakenAt = s.now()
	}

	m := &db.Measurement{
		RecordedAt:   sample.TakenAt,
		TemperatureC: sample.Temperature,
		TemperatureF: Fahrenheit(sample.Temperature),
		Humidity:     sample.Humidity,
		CO2:          sample.CO2,
		TVOC:         sample.TVOC,
	}
	if err := s.store.Append(ctx, m); err != nil {
		s.record(Reading{Sample: sample, Err: err, At: s.now()})
		return fmt.Errorf("store sample: %w", err)
	}

	s.record(Reading{Sample: sample, At: sample.TakenAt})
	return nil
}

func (s *Sampler) record(r Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = r
	s.hasLast = true
	if r.Err == nil {
		s.lastOK = r.Sample
		s.hasOK = true
	}
}

// Last returns the most recent attempt.
func (s *Sampler) Last() (Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.hasLast
}

// LastValid returns the most recent stored sample.
func (s *Sampler) LastValid() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastOK, s.hasOK
}
