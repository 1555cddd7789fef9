package feed

import (
	"context"
	"sync"

	id "nonconf/pkg/domain"
)

// InMemoryFeed is the test/development twin of the Redis feed. Publish fans
// out synchronously to every open subscription for the record.
type InMemoryFeed struct {
	mu   sync.RWMutex
	subs map[id.RecordID][]*memorySubscription
}

func NewInMemory() *InMemoryFeed {
	return &InMemoryFeed{subs: make(map[id.RecordID][]*memorySubscription)}
}

func (f *InMemoryFeed) Publish(_ context.Context, change Change) error {
	f.mu.RLock()
	subs := append([]*memorySubscription(nil), f.subs[change.RecordID]...)
	f.mu.RUnlock()
	for _, sub := range subs {
		sub.deliver(change)
	}
	return nil
}

func (f *InMemoryFeed) Subscribe(_ context.Context, recordID id.RecordID) (Subscription, error) {
	sub := &memorySubscription{
		feed:     f,
		recordID: recordID,
		changes:  make(chan Change, 16),
	}
	f.mu.Lock()
	f.subs[recordID] = append(f.subs[recordID], sub)
	f.mu.Unlock()
	return sub, nil
}

type memorySubscription struct {
	feed     *InMemoryFeed
	recordID id.RecordID
	changes  chan Change
	once     sync.Once
	mu       sync.Mutex
	closed   bool
}

func (s *memorySubscription) Changes() <-chan Change { return s.changes }

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.feed.remove(s)
		s.mu.Lock()
		s.closed = true
		close(s.changes)
		s.mu.Unlock()
	})
	return nil
}

func (s *memorySubscription) deliver(change Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.changes <- change:
	default:
		// Slow consumer: drop rather than block publishers. Consumers
		// re-fetch the aggregate anyway, so a dropped hint only delays them
		// until the next change.
	}
}

func (f *InMemoryFeed) remove(sub *memorySubscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.subs[sub.recordID]
	for i, candidate := range subs {
		if candidate == sub {
			f.subs[sub.recordID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}
