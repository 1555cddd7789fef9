//go:build integration

package record_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"nonconf/internal/rnc/models"
	"nonconf/internal/rnc/store/record"
	id "nonconf/pkg/domain"
	"nonconf/pkg/platform/sentinel"
	txcontext "nonconf/pkg/platform/tx"
	"nonconf/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *record.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = record.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	ctx := context.Background()
	_ = s.postgres.DB.Close()
	_ = s.postgres.Container.Terminate(ctx)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background()))
}

func newTestRecord() *models.Record {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Record{
		ID:          id.NewRecordID(),
		Type:        models.RecordTypeSupplier,
		Department:  models.DepartmentQuality,
		Priority:    models.PriorityHigh,
		Description: "dented housings in inbound lot",
		Status:      models.StatusOpen,
		OrderRef:    "PO-1001",
		CreatedBy:   id.NewUserID(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TestSequenceAssignment verifies the database serial is the source of the
// sequence number and that deleted sequences are never reused.
func (s *PostgresStoreSuite) TestSequenceAssignment() {
	ctx := context.Background()

	first := newTestRecord()
	s.Require().NoError(s.store.Create(ctx, first))
	second := newTestRecord()
	s.Require().NoError(s.store.Create(ctx, second))

	s.Greater(second.Sequence, first.Sequence)

	s.Require().NoError(s.store.Delete(ctx, second.ID))

	third := newTestRecord()
	s.Require().NoError(s.store.Create(ctx, third))
	s.Greater(third.Sequence, second.Sequence, "sequence must not be reused after deletion")
}

// TestRoundTrip verifies every column survives a write and read, including the
// nullable assignment triple.
func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	rec := newTestRecord()
	assignee := id.NewUserID()
	assigner := id.NewUserID()
	at := time.Now().UTC().Truncate(time.Microsecond)
	rec.AssignedTo = &assignee
	rec.AssignedBy = &assigner
	rec.AssignedAt = &at
	s.Require().NoError(s.store.Create(ctx, rec))

	got, err := s.store.Get(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.ID, got.ID)
	s.Equal(rec.Sequence, got.Sequence)
	s.Equal(rec.Description, got.Description)
	s.Equal(models.StatusOpen, got.Status)
	s.Require().NotNil(got.AssignedTo)
	s.Equal(assignee, *got.AssignedTo)
	s.Require().NotNil(got.AssignedBy)
	s.Equal(assigner, *got.AssignedBy)
	s.Nil(got.ClosedAt)
	s.EqualValues(1, got.Version)
}

// TestConcurrentVersionedUpdates verifies that racing writers holding the same
// version produce exactly one winner; the rest see sentinel.ErrConflict.
func (s *PostgresStoreSuite) TestConcurrentVersionedUpdates() {
	ctx := context.Background()

	rec := newTestRecord()
	s.Require().NoError(s.store.Create(ctx, rec))

	const goroutines = 20
	var wg sync.WaitGroup
	var wins, conflicts, unexpected atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			stale := *rec
			// Every writer holds the initial version.
			stale.Version = 1
			stale.Description = "writer " + string(rune('a'+idx))
			stale.UpdatedAt = time.Now().UTC()
			switch err := s.store.Update(ctx, &stale); {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			default:
				unexpected.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load(), "exactly one stale writer may win")
	s.Equal(int32(goroutines-1), conflicts.Load())
	s.Equal(int32(0), unexpected.Load())

	got, err := s.store.Get(ctx, rec.ID)
	s.Require().NoError(err)
	s.EqualValues(2, got.Version)
}

// TestUpdateErrors distinguishes a missing row from a stale version.
func (s *PostgresStoreSuite) TestUpdateErrors() {
	ctx := context.Background()

	ghost := newTestRecord()
	ghost.Version = 1
	s.ErrorIs(s.store.Update(ctx, ghost), sentinel.ErrNotFound)

	rec := newTestRecord()
	s.Require().NoError(s.store.Create(ctx, rec))
	stale := *rec
	stale.Version = 99
	s.ErrorIs(s.store.Update(ctx, &stale), sentinel.ErrConflict)

	_, err := s.store.Get(ctx, id.NewRecordID())
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(ctx, id.NewRecordID()), sentinel.ErrNotFound)
}

// TestTransactionRollback verifies the store honors a transaction carried in
// the context, and that rolling it back leaves no trace.
func (s *PostgresStoreSuite) TestTransactionRollback() {
	ctx := context.Background()

	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)
	txCtx := txcontext.WithTx(ctx, tx)

	rec := newTestRecord()
	s.Require().NoError(s.store.Create(txCtx, rec))

	// Visible inside the transaction.
	_, err = s.store.Get(txCtx, rec.ID)
	s.Require().NoError(err)

	s.Require().NoError(tx.Rollback())

	_, err = s.store.Get(ctx, rec.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListOrdersNewestFirst() {
	ctx := context.Background()

	var created []*models.Record
	for i := 0; i < 3; i++ {
		rec := newTestRecord()
		s.Require().NoError(s.store.Create(ctx, rec))
		created = append(created, rec)
	}

	listed, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 3)
	s.Equal(created[2].ID, listed[0].ID)
	s.Equal(created[0].ID, listed[2].ID)
}
