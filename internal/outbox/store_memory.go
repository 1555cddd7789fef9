package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"nonconf/pkg/platform/sentinel"
)

// InMemoryStore keeps outbox rows in append order for tests and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *entry
	s.entries = append(s.entries, &clone)
	return nil
}

func (s *InMemoryStore) ListUnpublished(_ context.Context, limit int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []*Entry
	for _, entry := range s.entries {
		if entry.PublishedAt == nil {
			clone := *entry
			pending = append(pending, &clone)
			if limit > 0 && len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, entryID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.ID == entryID {
			stamp := at
			entry.PublishedAt = &stamp
			return nil
		}
	}
	return fmt.Errorf("outbox entry %s: %w", entryID, sentinel.ErrNotFound)
}
