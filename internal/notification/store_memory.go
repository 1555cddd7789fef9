package notification

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	id "nonconf/pkg/domain"
	"nonconf/pkg/platform/sentinel"
)

// InMemoryStore keeps notifications in memory for tests and development.
type InMemoryStore struct {
	mu   sync.RWMutex
	byID map[id.NotificationID]*Notification

	// FailDelete makes the next DeleteByRecord return the given error.
	FailDelete error
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.NotificationID]*Notification)}
}

func (s *InMemoryStore) Create(_ context.Context, notification *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *notification
	s.byID[notification.ID] = &clone
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var notifications []*Notification
	for _, notification := range s.byID {
		if notification.UserID == userID {
			clone := *notification
			notifications = append(notifications, &clone)
		}
	}
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, notificationID id.NotificationID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	notification, ok := s.byID[notificationID]
	if !ok || notification.UserID != userID {
		return fmt.Errorf("notification %s: %w", notificationID, sentinel.ErrNotFound)
	}
	notification.Read = true
	return nil
}

func (s *InMemoryStore) ListUndelivered(_ context.Context, limit int) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var notifications []*Notification
	for _, notification := range s.byID {
		if notification.DeliveredAt == nil {
			clone := *notification
			notifications = append(notifications, &clone)
		}
	}
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.Before(notifications[j].CreatedAt)
	})
	if limit > 0 && len(notifications) > limit {
		notifications = notifications[:limit]
	}
	return notifications, nil
}

func (s *InMemoryStore) MarkDelivered(_ context.Context, notificationID id.NotificationID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	notification, ok := s.byID[notificationID]
	if !ok {
		return fmt.Errorf("notification %s: %w", notificationID, sentinel.ErrNotFound)
	}
	stamp := at
	notification.DeliveredAt = &stamp
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
	var count int64
	for notificationID, notification := range s.byID {
		if notification.RecordID == recordID {
			delete(s.byID, notificationID)
			count++
		}
	}
	return count, nil
}
