package feed

import (
	"context"
	"log/slog"
	"sync"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
)

// AggregateLoader re-fetches the full aggregate for a record. The service
// layer provides it; the reconciler never reads stores directly.
type AggregateLoader func(ctx context.Context, recordID id.RecordID) (*models.Aggregate, error)

// Reconciler turns raw change notifications into refreshed aggregates for
// viewers. Each Watch call is an independent subscription: two viewers of the
// same record each get their own callback invocations.
type Reconciler struct {
	feed   Feed
	load   AggregateLoader
	logger *slog.Logger
}

func NewReconciler(f Feed, load AggregateLoader, logger *slog.Logger) *Reconciler {
	return &Reconciler{feed: f, load: load, logger: logger}
}

// Watch subscribes to the record's change stream and invokes onUpdate with a
// freshly loaded aggregate after every change. A delete change invokes
// onUpdate with nil and ends the watch. The returned handle must be closed
// exactly once; closing tears down the subscription and stops the callback
// goroutine.
func (r *Reconciler) Watch(ctx context.Context, recordID id.RecordID, onUpdate func(*models.Aggregate)) (*Watch, error) {
	sub, err := r.feed.Subscribe(ctx, recordID)
	if err != nil {
		return nil, err
	}
	w := &Watch{sub: sub, done: make(chan struct{})}
	go r.run(ctx, recordID, sub, onUpdate, w)
	return w, nil
}

func (r *Reconciler) run(ctx context.Context, recordID id.RecordID, sub Subscription, onUpdate func(*models.Aggregate), w *Watch) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			_ = sub.Close()
			return
		case change, ok := <-sub.Changes():
			if !ok {
				return
			}
			if change.Kind == KindDelete && change.Table == "records" {
				onUpdate(nil)
				_ = sub.Close()
				return
			}
			aggregate, err := r.load(ctx, recordID)
			if err != nil {
				// The record may be mid-deletion; viewers keep their last
				// rendered state until the next change resolves it.
				r.logger.WarnContext(ctx, "aggregate refresh failed",
					"record_id", recordID,
					"error", err,
				)
				continue
			}
			onUpdate(aggregate)
		}
	}
}

// Watch is a handle on one reconciler subscription.
type Watch struct {
	sub  Subscription
	done chan struct{}
	once sync.Once
}

// Close tears down the subscription. Idempotent.
func (w *Watch) Close() error {
	var err error
	w.once.Do(func() {
		err = w.sub.Close()
	})
	return err
}

// Done is closed when the watch goroutine has fully stopped.
func (w *Watch) Done() <-chan struct{} { return w.done }
