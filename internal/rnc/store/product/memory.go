package product

import (
	"context"
	"sort"
	"sync"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
)

// InMemoryStore keeps products per record for tests and development.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[id.RecordID][]*models.Product

	// FailDelete makes the next DeleteByRecord return the given error. The
	// cascading-deletion tests inject stage failures through it.
	FailDelete error
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{products: make(map[id.RecordID][]*models.Product)}
}

func (s *InMemoryStore) Create(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *product
	s.products[product.RecordID] = append(s.products[product.RecordID], &clone)
	return nil
}

func (s *InMemoryStore) ListByRecord(_ context.Context, recordID id.RecordID) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]*models.Product, 0, len(s.products[recordID]))
	for _, product := range s.products[recordID] {
		clone := *product
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
	count := int64(len(s.products[recordID]))
	delete(s.products, recordID)
	return count, nil
}
