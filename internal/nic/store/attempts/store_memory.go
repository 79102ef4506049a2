// Package attempts stores failed-validation counters per identity number hash.
package attempts

import (
	"context"
	"errors"
	"sync"
	"time"

	"nicgate/internal/nic/models"
)

var errNilRecord = errors.New("attempt record is required")

// InMemoryStore keeps attempt records in a map guarded by a mutex.
// Window accounting lives in models.AttemptRecord; the store only makes the
// read-modify-write atomic.
type InMemoryStore struct {
	mu      sync.Mutex
	window  time.Duration
	records map[string]*models.AttemptRecord
}

func New(window time.Duration) *InMemoryStore {
	return &InMemoryStore{
		window:  window,
		records: make(map[string]*models.AttemptRecord),
	}
}

// Get returns a copy of the record for key, or nil when none exists.
func (s *InMemoryStore) Get(_ context.Context, key string) (*models.AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return cloneRecord(record), nil
}

func (s *InMemoryStore) RecordFailure(_ context.Context, key string, now time.Time) (*models.AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok {
		record = &models.AttemptRecord{Key: key}
		s.records[key] = record
	}
	record.RegisterFailure(now, s.window)
	return cloneRecord(record), nil
}

func (s *InMemoryStore) Update(_ context.Context, record *models.AttemptRecord) error {
	if record == nil {
		return errNilRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Key] = cloneRecord(record)
	return nil
}

// Clear drops the record for key unless it is locked at now.
func (s *InMemoryStore) Clear(_ context.Context, key string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[key].IsLockedAt(now) {
		return false, nil
	}
	delete(s.records, key)
	return true, nil
}

// Prune drops records whose window and lock have both ended at now.
func (s *InMemoryStore) Prune(_ context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, record := range s.records {
		if !now.Before(record.ExpiresAt(s.window)) {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

func cloneRecord(r *models.AttemptRecord) *models.AttemptRecord {
	c := *r
	if r.LockedUntil != nil {
		until := *r.LockedUntil
		c.LockedUntil = &until
	}
	return &c
}
