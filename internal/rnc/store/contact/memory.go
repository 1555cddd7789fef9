package contact

import (
	"context"
	"sort"
	"sync"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
)

// InMemoryStore keeps contacts per record for tests and development.
type InMemoryStore struct {
	mu       sync.RWMutex
	contacts map[id.RecordID][]*models.Contact

	// FailDelete makes the next DeleteByRecord return the given error.
	FailDelete error
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{contacts: make(map[id.RecordID][]*models.Contact)}
}

func (s *InMemoryStore) Create(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *contact
	s.contacts[contact.RecordID] = append(s.contacts[contact.RecordID], &clone)
	return nil
}

func (s *InMemoryStore) ListByRecord(_ context.Context, recordID id.RecordID) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]*models.Contact, 0, len(s.contacts[recordID]))
	for _, contact := range s.contacts[recordID] {
		clone := *contact
		items = append(items, &clone)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
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
	count := int64(len(s.contacts[recordID]))
	delete(s.contacts, recordID)
	return count, nil
}
