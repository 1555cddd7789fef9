package transition

import (
	"context"
	"sync"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
)

// InMemoryStore keeps transitions per record for tests and development.
// Append order is preserved, matching the Postgres created_at ordering.
type InMemoryStore struct {
	mu          sync.RWMutex
	transitions map[id.RecordID][]*models.Transition

	// FailDelete makes the next DeleteByRecord return the given error.
	FailDelete error
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{transitions: make(map[id.RecordID][]*models.Transition)}
}

func (s *InMemoryStore) Append(_ context.Context, transition *models.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *transition
	s.transitions[transition.RecordID] = append(s.transitions[transition.RecordID], &clone)
	return nil
}

func (s *InMemoryStore) ListByRecord(_ context.Context, recordID id.RecordID) ([]*models.Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]*models.Transition, 0, len(s.transitions[recordID]))
	for _, transition := range s.transitions[recordID] {
		clone := *transition
		items = append(items, &clone)
	}
	return items, nil
}

func (s *InMemoryStore) DeleteByRecord(_ context.Context, recordID id.RecordID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete != nil {
		err := s.FailDelete
		s.FailDelete = nil
		return 0, err
	}
	count := int64(len(s.transitions[recordID]))
	delete(s.transitions, recordID)
	return count, nil
}
