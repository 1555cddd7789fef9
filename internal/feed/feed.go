// Package feed propagates record mutations to subscribed viewers. Publishers
// emit a Change per mutation; subscribers treat the payload as a hint and
// re-fetch the full aggregate (see Reconciler) because a change notification
// may describe any row of the aggregate, not the whole of it.
package feed

import (
	"context"

	id "nonconf/pkg/domain"
)

// Kind is the mutation class carried by a change notification.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Change is one mutation notification for a record's aggregate. Table names
// which logical table was touched; consumers must not trust the change as a
// complete view of the new state.
type Change struct {
	RecordID id.RecordID `json:"record_id"`
	Kind     Kind        `json:"kind"`
	Table    string      `json:"table"`
}

// Subscription is one live listener on a record's change stream. Close is
// idempotent; after Close the Changes channel is closed and no goroutine or
// underlying channel leaks.
type Subscription interface {
	Changes() <-chan Change
	Close() error
}

// Feed is the change-feed boundary. Multiple independent subscriptions to the
// same record each receive every change; there is no deduplication.
type Feed interface {
	Publish(ctx context.Context, change Change) error
	Subscribe(ctx context.Context, recordID id.RecordID) (Subscription, error)
}
