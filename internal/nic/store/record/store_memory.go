// Package record persists validation records. Stores are pure I/O; what goes
// into a record is decided by the service.
package record

import (
	"context"
	"sync"

	"nicgate/internal/nic/models"
)

// InMemoryStore keeps records in insertion order.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*models.ValidationRecord
	byHash  map[string][]*models.ValidationRecord
}

func New() *InMemoryStore {
	return &InMemoryStore{byHash: make(map[string][]*models.ValidationRecord)}
}

func (s *InMemoryStore) Save(_ context.Context, record *models.ValidationRecord) error {
	if record == nil {
		return errNilRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *record
	s.records = append(s.records, &stored)
	s.byHash[record.NumberHash] = append(s.byHash[record.NumberHash], &stored)
	return nil
}

// ListRecent returns up to limit records, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]*models.ValidationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.records, limit), nil
}

// FindByHash returns every record for a number hash, newest first.
func (s *InMemoryStore) FindByHash(_ context.Context, numberHash string) ([]*models.ValidationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.byHash[numberHash]
	return newestFirst(records, len(records)), nil
}

func newestFirst(records []*models.ValidationRecord, limit int) []*models.ValidationRecord {
	n := min(max(limit, 0), len(records))
	out := make([]*models.ValidationRecord, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		copied := *records[i]
		out = append(out, &copied)
	}
	return out
}
