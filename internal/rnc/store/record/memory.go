package record

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
	"nonconf/pkg/platform/sentinel"
)

// InMemoryStore mirrors the Postgres store for tests and development. The
// sequence counter is monotonic for the store's lifetime and never reused.
type InMemoryStore struct {
	mu       sync.RWMutex
	records  map[id.RecordID]*models.Record
	sequence int64

	// FailUpdate, when set, makes the next Update return the given error.
	// Tests use it to exercise failure propagation.
	FailUpdate error
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.RecordID]*models.Record)}
}

func (s *InMemoryStore) Create(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return fmt.Errorf("record %s already exists: %w", record.ID, sentinel.ErrConflict)
	}
	s.sequence++
	record.Sequence = s.sequence
	record.Version = 1
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[recordID]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", recordID, sentinel.ErrNotFound)
	}
	clone := *record
	return &clone, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*models.Record, 0, len(s.records))
	for _, record := range s.records {
		clone := *record
		records = append(records, &clone)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Sequence > records[j].Sequence })
	return records, nil
}

func (s *InMemoryStore) Update(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdate != nil {
		err := s.FailUpdate
		s.FailUpdate = nil
		return err
	}
	stored, ok := s.records[record.ID]
	if !ok {
		return fmt.Errorf("record %s: %w", record.ID, sentinel.ErrNotFound)
	}
	if stored.Version != record.Version {
		return fmt.Errorf("record %s version %d is stale: %w", record.ID, record.Version, sentinel.ErrConflict)
	}
	record.Version++
	record.Sequence = stored.Sequence
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, recordID id.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[recordID]; !ok {
		return fmt.Errorf("record %s: %w", recordID, sentinel.ErrNotFound)
	}
	delete(s.records, recordID)
	return nil
}
