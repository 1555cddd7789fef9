package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	id "nonconf/pkg/domain"
)

const channelPrefix = "rnc:records:"

// RedisFeed implements Feed on Redis pub/sub with one channel per record.
type RedisFeed struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedis(client *redis.Client, logger *slog.Logger) *RedisFeed {
	return &RedisFeed{client: client, logger: logger}
}

func (f *RedisFeed) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := f.client.Publish(ctx, channelPrefix+change.RecordID.String(), payload).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, recordID id.RecordID) (Subscription, error) {
	pubsub := f.client.Subscribe(ctx, channelPrefix+recordID.String())
	// Force the SUBSCRIBE round trip so a broken connection surfaces here
	// instead of as a silent dead channel.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe record feed: %w", err)
	}

	sub := &redisSubscription{
		pubsub:  pubsub,
		changes: make(chan Change),
		done:    make(chan struct{}),
	}
	go sub.pump(f.logger)
	return sub, nil
}

type redisSubscription struct {
	pubsub  *redis.PubSub
	changes chan Change
	done    chan struct{}
	once    sync.Once
}

func (s *redisSubscription) Changes() <-chan Change { return s.changes }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

func (s *redisSubscription) pump(logger *slog.Logger) {
	defer close(s.changes)
	for msg := range s.pubsub.Channel() {
		var change Change
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			logger.Warn("dropping malformed feed payload", "error", err)
			continue
		}
		select {
		case s.changes <- change:
		case <-s.done:
			return
		}
	}
}
