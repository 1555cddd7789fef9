//go:build integration

package feed_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"nonconf/internal/feed"
	id "nonconf/pkg/domain"
	"nonconf/pkg/testutil/containers"
)

type RedisFeedSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	feed  *feed.RedisFeed
}

func TestRedisFeedSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisFeedSuite))
}

func (s *RedisFeedSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.feed = feed.NewRedis(s.redis.Client, logger)
}

func (s *RedisFeedSuite) TearDownSuite() {
	ctx := context.Background()
	_ = s.redis.Client.Close()
	_ = s.redis.Container.Terminate(ctx)
}

func (s *RedisFeedSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisFeedSuite) receive(sub feed.Subscription) feed.Change {
	select {
	case change, ok := <-sub.Changes():
		s.Require().True(ok, "subscription channel closed unexpectedly")
		return change
	case <-time.After(5 * time.Second):
		s.FailNow("timed out waiting for change")
		return feed.Change{}
	}
}

// TestPublishReachesAllSubscribers verifies pub/sub fan-out and per-record
// channel isolation over a real broker.
func (s *RedisFeedSuite) TestPublishReachesAllSubscribers() {
	ctx := context.Background()
	recordID := id.NewRecordID()
	otherID := id.NewRecordID()

	first, err := s.feed.Subscribe(ctx, recordID)
	s.Require().NoError(err)
	defer first.Close()
	second, err := s.feed.Subscribe(ctx, recordID)
	s.Require().NoError(err)
	defer second.Close()
	other, err := s.feed.Subscribe(ctx, otherID)
	s.Require().NoError(err)
	defer other.Close()

	change := feed.Change{RecordID: recordID, Kind: feed.KindUpdate, Table: "records"}
	s.Require().NoError(s.feed.Publish(ctx, change))

	s.Equal(change, s.receive(first))
	s.Equal(change, s.receive(second))

	select {
	case got := <-other.Changes():
		s.Failf("unexpected delivery", "subscriber of another record received %+v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func (s *RedisFeedSuite) TestChangesInOrder() {
	ctx := context.Background()
	recordID := id.NewRecordID()

	sub, err := s.feed.Subscribe(ctx, recordID)
	s.Require().NoError(err)
	defer sub.Close()

	tables := []string{"records", "record_products", "record_events"}
	for _, table := range tables {
		s.Require().NoError(s.feed.Publish(ctx, feed.Change{
			RecordID: recordID, Kind: feed.KindInsert, Table: table,
		}))
	}

	for _, table := range tables {
		s.Equal(table, s.receive(sub).Table)
	}
}

func (s *RedisFeedSuite) TestCloseIsIdempotent() {
	ctx := context.Background()
	sub, err := s.feed.Subscribe(ctx, id.NewRecordID())
	s.Require().NoError(err)

	s.Require().NoError(sub.Close())
	s.NoError(sub.Close())

	// The changes channel drains and closes after the pump exits.
	select {
	case _, ok := <-sub.Changes():
		s.False(ok)
	case <-time.After(5 * time.Second):
		s.FailNow("changes channel did not close")
	}
}
