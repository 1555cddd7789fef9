// Package store declares the persistence boundary for the record aggregate.
// Every interface ships with a Postgres implementation and an in-memory twin;
// unit tests run against memory, integration tests against Postgres.
//
// Error contract shared by all implementations:
//   - sentinel.ErrNotFound when the requested entity does not exist
//   - sentinel.ErrConflict when a versioned write observes a stale version
//   - wrapped infrastructure errors otherwise
package store

import (
	"context"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
)

// RecordStore persists record rows. Create assigns the human-facing sequence
// number (monotonic, never reused) and initializes the version counter.
// Update is a full-row write compare-and-swapped on Version: on success the
// stored and in-memory Version are incremented, on a stale observation the
// write is rejected with sentinel.ErrConflict and nothing changes.
type RecordStore interface {
	Create(ctx context.Context, record *models.Record) error
	Get(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	List(ctx context.Context) ([]*models.Record, error)
	Update(ctx context.Context, record *models.Record) error
	Delete(ctx context.Context, recordID id.RecordID) error
}

// ProductStore persists product line items owned by a record.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	ListByRecord(ctx context.Context, recordID id.RecordID) ([]*models.Product, error)
	DeleteByRecord(ctx context.Context, recordID id.RecordID) (int64, error)
}

// ContactStore persists contacts owned by a record.
type ContactStore interface {
	Create(ctx context.Context, contact *models.Contact) error
	ListByRecord(ctx context.Context, recordID id.RecordID) ([]*models.Contact, error)
	DeleteByRecord(ctx context.Context, recordID id.RecordID) (int64, error)
}

// EventStore is append-only for all event kinds. Delete exists solely for the
// comment-deletion path; the service layer never calls it for other types.
type EventStore interface {
	Append(ctx context.Context, event *models.Event) error
	Get(ctx context.Context, eventID id.EventID) (*models.Event, error)
	ListByRecord(ctx context.Context, recordID id.RecordID) ([]*models.Event, error)
	Delete(ctx context.Context, eventID id.EventID) error
	DeleteByRecord(ctx context.Context, recordID id.RecordID) (int64, error)
}

// TransitionStore persists workflow transition rows, append-only.
type TransitionStore interface {
	Append(ctx context.Context, transition *models.Transition) error
	ListByRecord(ctx context.Context, recordID id.RecordID) ([]*models.Transition, error)
	DeleteByRecord(ctx context.Context, recordID id.RecordID) (int64, error)
}
