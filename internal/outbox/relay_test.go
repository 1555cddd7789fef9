package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
)

type fakeProducer struct {
	keys     []string
	payloads [][]byte
	failOn   int // 1-based call index to fail at, 0 means never
	calls    int
}

func (p *fakeProducer) Produce(_ context.Context, key, value []byte) error {
	p.calls++
	if p.failOn > 0 && p.calls == p.failOn {
		return errors.New("broker unavailable")
	}
	p.keys = append(p.keys, string(key))
	p.payloads = append(p.payloads, value)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func appendEntry(t *testing.T, store Store, record *models.Record, eventType models.EventType, at time.Time) *Entry {
	t.Helper()
	entry, err := NewEntry(record, eventType, id.NewUserID(), at)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), entry))
	return entry
}

func TestRelay_PublishesInOrder(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	producer := &fakeProducer{}
	relay := NewRelay(store, producer, testLogger())

	record := &models.Record{ID: id.NewRecordID(), Sequence: 1, Status: models.StatusOpen}
	base := time.Now()
	appendEntry(t, store, record, models.EventTypeCreation, base)
	appendEntry(t, store, record, models.EventTypeAssignment, base.Add(time.Second))
	appendEntry(t, store, record, models.EventTypeStatusChange, base.Add(2*time.Second))

	require.NoError(t, relay.RelayPending(ctx))

	require.Len(t, producer.keys, 3)
	for _, key := range producer.keys {
		assert.Equal(t, record.ID.String(), key, "entries keyed by record id")
	}
	assert.Contains(t, string(producer.payloads[0]), `"event_type":"creation"`)
	assert.Contains(t, string(producer.payloads[2]), `"event_type":"status-change"`)

	pending, err := store.ListUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRelay_PublishesEachEntryOnce(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	producer := &fakeProducer{}
	relay := NewRelay(store, producer, testLogger())

	record := &models.Record{ID: id.NewRecordID(), Sequence: 2, Status: models.StatusOpen}
	appendEntry(t, store, record, models.EventTypeCreation, time.Now())

	require.NoError(t, relay.RelayPending(ctx))
	require.NoError(t, relay.RelayPending(ctx))

	assert.Len(t, producer.keys, 1, "published rows are not re-produced")
}

func TestRelay_StopsSweepOnProduceFailure(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	producer := &fakeProducer{failOn: 2}
	relay := NewRelay(store, producer, testLogger())

	record := &models.Record{ID: id.NewRecordID(), Sequence: 3, Status: models.StatusOpen}
	base := time.Now()
	appendEntry(t, store, record, models.EventTypeCreation, base)
	appendEntry(t, store, record, models.EventTypeAssignment, base.Add(time.Second))
	appendEntry(t, store, record, models.EventTypeStatusChange, base.Add(2*time.Second))

	require.Error(t, relay.RelayPending(ctx))

	assert.Len(t, producer.keys, 1, "sweep stops at the failed entry")
	pending, err := store.ListUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2, "failed and later entries stay pending, order preserved")
	assert.Equal(t, models.EventTypeAssignment, pending[0].EventType)

	// Next sweep picks up where it left off.
	require.NoError(t, relay.RelayPending(ctx))
	assert.Len(t, producer.keys, 3)
}
