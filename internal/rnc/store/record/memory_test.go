package record

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
	"nonconf/pkg/platform/sentinel"
)

func newRecord(t *testing.T) *models.Record {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Record{
		ID:          id.NewRecordID(),
		Type:        models.RecordTypeSupplier,
		Department:  models.DepartmentQuality,
		Priority:    models.PriorityHigh,
		Description: "bent flanges on inbound pallet",
		Status:      models.StatusOpen,
		CreatedBy:   id.NewUserID(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestInMemoryStore_CreateAssignsSequence(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	first := newRecord(t)
	second := newRecord(t)
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	assert.Equal(t, int64(1), first.Sequence)
	assert.Equal(t, int64(2), second.Sequence)
	assert.Equal(t, int64(1), first.Version)

	t.Run("duplicate id conflicts", func(t *testing.T) {
		err := store.Create(ctx, first)
		require.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("sequence not reused after delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, second.ID))
		third := newRecord(t)
		require.NoError(t, store.Create(ctx, third))
		assert.Equal(t, int64(3), third.Sequence)
	})
}

func TestInMemoryStore_UpdateCAS(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	record := newRecord(t)
	require.NoError(t, store.Create(ctx, record))

	t.Run("fresh read writes and bumps version", func(t *testing.T) {
		loaded, err := store.Get(ctx, record.ID)
		require.NoError(t, err)
		loaded.Description = "bent flanges, supplier acknowledged"
		require.NoError(t, store.Update(ctx, loaded))
		assert.Equal(t, int64(2), loaded.Version)
	})

	t.Run("stale version conflicts and changes nothing", func(t *testing.T) {
		stale := *record // still version 1
		stale.Description = "stale write"
		err := store.Update(ctx, &stale)
		require.ErrorIs(t, err, sentinel.ErrConflict)

		current, err := store.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "bent flanges, supplier acknowledged", current.Description)
		assert.Equal(t, int64(2), current.Version)
	})

	t.Run("missing record not found", func(t *testing.T) {
		ghost := newRecord(t)
		ghost.Version = 1
		require.ErrorIs(t, store.Update(ctx, ghost), sentinel.ErrNotFound)
	})

	t.Run("sequence survives a full-row write", func(t *testing.T) {
		loaded, err := store.Get(ctx, record.ID)
		require.NoError(t, err)
		loaded.Sequence = 999
		require.NoError(t, store.Update(ctx, loaded))
		current, err := store.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), current.Sequence)
	})
}

func TestInMemoryStore_GetReturnsClone(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	record := newRecord(t)
	require.NoError(t, store.Create(ctx, record))

	loaded, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	loaded.Description = "mutated by caller"

	again, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "bent flanges on inbound pallet", again.Description)
}

func TestInMemoryStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Create(ctx, newRecord(t)))
	}

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int64(3), records[0].Sequence)
	assert.Equal(t, int64(1), records[2].Sequence)
}

func TestInMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	record := newRecord(t)
	require.NoError(t, store.Create(ctx, record))

	require.NoError(t, store.Delete(ctx, record.ID))
	_, err := store.Get(ctx, record.ID)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, record.ID), sentinel.ErrNotFound)
}
