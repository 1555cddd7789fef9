package event

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
	"nonconf/pkg/platform/sentinel"
)

// InMemoryStore keeps events per record for tests and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[id.EventID]*models.Event
	byOwner map[id.RecordID][]id.EventID

	// FailDelete makes the next DeleteByRecord return the given error.
	FailDelete error
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[id.EventID]*models.Event),
		byOwner: make(map[id.RecordID][]id.EventID),
	}
}

func (s *InMemoryStore) Append(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *event
	s.byID[event.ID] = &clone
	s.byOwner[event.RecordID] = append(s.byOwner[event.RecordID], event.ID)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, eventID id.EventID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.byID[eventID]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", eventID, sentinel.ErrNotFound)
	}
	clone := *event
	return &clone, nil
}

func (s *InMemoryStore) ListByRecord(_ context.Context, recordID id.RecordID) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]*models.Event, 0, len(s.byOwner[recordID]))
	for _, eventID := range s.byOwner[recordID] {
		if event, ok := s.byID[eventID]; ok {
			clone := *event
			events = append(events, &clone)
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	return events, nil
}

func (s *InMemoryStore) Delete(_ context.Context, eventID id.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.byID[eventID]
	if !ok {
		return fmt.Errorf("event %s: %w", eventID, sentinel.ErrNotFound)
	}
	delete(s.byID, eventID)
	owned := s.byOwner[event.RecordID]
	for i, candidate := range owned {
		if candidate == eventID {
			s.byOwner[event.RecordID] = append(owned[:i], owned[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemoryStore) DeleteByRecord(_ context.Context, recordID id.RecordID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete != nil {
		err := s.FailDelete
		s.FailDelete = nil
		return 0, err
	}
	count := int64(len(s.byOwner[recordID]))
	for _, eventID := range s.byOwner[recordID] {
		delete(s.byID, eventID)
	}
	delete(s.byOwner, recordID)
	return count, nil
}
