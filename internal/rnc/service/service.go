// Package service orchestrates every record mutation: creation, field edits,
// workflow transitions, assignment, comments, collection, and cascading
// deletion. All permission checks and invariants live here; stores stay dumb.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"nonconf/internal/cache"
	"nonconf/internal/feed"
	"nonconf/internal/notification"
	"nonconf/internal/outbox"
	"nonconf/internal/policy"
	"nonconf/internal/rnc/metrics"
	"nonconf/internal/rnc/models"
	"nonconf/internal/rnc/store"
	id "nonconf/pkg/domain"
	dErrors "nonconf/pkg/domain-errors"
	"nonconf/pkg/platform/sentinel"
	txcontext "nonconf/pkg/platform/tx"
	"nonconf/pkg/requestcontext"
)

const listCacheKey = "rnc:records:list"

var tracer = otel.Tracer("nonconf/rnc/service")

// Service is the record domain service.
type Service struct {
	records     store.RecordStore
	products    store.ProductStore
	contacts    store.ContactStore
	events      store.EventStore
	transitions store.TransitionStore

	notifications notification.Store
	dispatcher    *notification.Dispatcher

	feed    feed.Feed
	cache   cache.Cache
	outbox  outbox.Store
	logger  *slog.Logger
	metrics *metrics.Metrics

	// db enables cross-store transactions. Nil with memory stores; then
	// multi-stage operations run sequentially, best effort.
	db *sql.DB

	cacheTTL time.Duration
}

// Stores bundles the per-entity stores the service persists through.
type Stores struct {
	Records       store.RecordStore
	Products      store.ProductStore
	Contacts      store.ContactStore
	Events        store.EventStore
	Transitions   store.TransitionStore
	Notifications notification.Store
}

type Option func(*Service)

func WithDB(db *sql.DB) Option {
	return func(s *Service) { s.db = db }
}

func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithOutbox(store outbox.Store) Option {
	return func(s *Service) { s.outbox = store }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(stores Stores, dispatcher *notification.Dispatcher, f feed.Feed, logger *slog.Logger, opts ...Option) (*Service, error) {
	if stores.Records == nil || stores.Products == nil || stores.Contacts == nil ||
		stores.Events == nil || stores.Transitions == nil || stores.Notifications == nil {
		return nil, fmt.Errorf("all stores are required")
	}
	if f == nil {
		return nil, fmt.Errorf("change feed is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	svc := &Service{
		records:       stores.Records,
		products:      stores.Products,
		contacts:      stores.Contacts,
		events:        stores.Events,
		transitions:   stores.Transitions,
		notifications: stores.Notifications,
		dispatcher:    dispatcher,
		feed:          f,
		logger:        logger,
		cacheTTL:      10 * time.Minute,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateInput carries the caller-settable fields for a new record.
type CreateInput struct {
	Type        models.RecordType
	Department  models.Department
	Priority    models.Priority
	Description string
	OrderRef    string
	InvoiceRef  string
	ReturnRef   string
}

// Create persists a new record in the first workflow stage and appends the
// creation event. The sequence number is assigned by the store, once.
func (s *Service) Create(ctx context.Context, actor policy.Actor, input CreateInput) (*models.Record, error) {
	ctx, span := tracer.Start(ctx, "rnc.Create")
	defer span.End()

	if actor.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)
	record := &models.Record{
		ID:          id.NewRecordID(),
		Type:        input.Type,
		Department:  input.Department,
		Priority:    input.Priority,
		Description: input.Description,
		OrderRef:    input.OrderRef,
		InvoiceRef:  input.InvoiceRef,
		ReturnRef:   input.ReturnRef,
		Status:      models.StatusOpen,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	err := s.withTx(ctx, func(ctx context.Context) error {
		if err := s.records.Create(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "create record")
		}
		event := &models.Event{
			ID:        id.NewEventID(),
			RecordID:  record.ID,
			Type:      models.EventTypeCreation,
			Title:     "Record created",
			CreatedBy: actor.ID,
			CreatedAt: now,
		}
		if err := s.events.Append(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append creation event")
		}
		return s.appendOutbox(ctx, record, models.EventTypeCreation, actor.ID, now)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordsCreated.Inc()
	}
	s.afterMutation(ctx, record.ID, feed.KindInsert, "records")
	s.logger.InfoContext(ctx, "record created",
		"record_id", record.ID,
		"sequence", record.Sequence,
		"created_by", actor.ID,
	)
	return record, nil
}

// Get loads the full aggregate, fetching dependent collections in parallel.
func (s *Service) Get(ctx context.Context, recordID id.RecordID) (*models.Aggregate, error) {
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, translateStoreErr(err, "record")
	}

	aggregate := &models.Aggregate{Record: record}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.products.ListByRecord(gctx, recordID)
		aggregate.Products = products
		return err
	})
	g.Go(func() error {
		contacts, err := s.contacts.ListByRecord(gctx, recordID)
		aggregate.Contacts = contacts
		return err
	})
	g.Go(func() error {
		events, err := s.events.ListByRecord(gctx, recordID)
		aggregate.Events = events
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load record aggregate")
	}
	return aggregate, nil
}

// List returns all records, served from the TTL cache when warm.
func (s *Service) List(ctx context.Context) ([]*models.Record, error) {
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, listCacheKey); err != nil {
			s.logger.WarnContext(ctx, "record list cache read failed", "error", err)
		} else if ok {
			var records []*models.Record
			if err := json.Unmarshal(cached, &records); err == nil {
				if s.metrics != nil {
					s.metrics.CacheHits.Inc()
				}
				return records, nil
			}
			// A malformed entry is dropped and rebuilt from the store.
			_ = s.cache.Invalidate(ctx, listCacheKey)
		}
	}
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}

	records, err := s.records.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list records")
	}
	if s.cache != nil {
		if encoded, err := json.Marshal(records); err == nil {
			if err := s.cache.Set(ctx, listCacheKey, encoded, s.cacheTTL); err != nil {
				s.logger.WarnContext(ctx, "record list cache write failed", "error", err)
			}
		}
	}
	return records, nil
}

// UpdateInput carries the directly editable fields. Workflow status is
// deliberately absent: status only moves through Transition, and assignment
// fields only through Assign.
type UpdateInput struct {
	Type        models.RecordType
	Department  models.Department
	Priority    models.Priority
	Description string
	OrderRef    string
	InvoiceRef  string
	ReturnRef   string
}

// Update edits the record's classification and reference fields. The write is
// a full-row compare-and-swap; a concurrent mutation since the caller's read
// surfaces as conflict rather than silently clobbering.
func (s *Service) Update(ctx context.Context, actor policy.Actor, recordID id.RecordID, input UpdateInput) (*models.Record, error) {
	ctx, span := tracer.Start(ctx, "rnc.Update")
	defer span.End()

	record, err := s.authorizeMutation(ctx, actor, recordID)
	if err != nil {
		return nil, err
	}

	record.Type = input.Type
	record.Department = input.Department
	record.Priority = input.Priority
	record.Description = input.Description
	record.OrderRef = input.OrderRef
	record.InvoiceRef = input.InvoiceRef
	record.ReturnRef = input.ReturnRef
	record.UpdatedAt = requestcontext.Now(ctx)
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.records.Update(ctx, record); err != nil {
		return nil, translateStoreErr(err, "record")
	}
	s.afterMutation(ctx, record.ID, feed.KindUpdate, "records")
	return record, nil
}

// authorizeMutation loads the record and applies the shared creator-or-admin
// rule used by every mutating operation.
func (s *Service) authorizeMutation(ctx context.Context, actor policy.Actor, recordID id.RecordID) (*models.Record, error) {
	if actor.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, translateStoreErr(err, "record")
	}
	if !actor.CanMutateRecord(record.CreatedBy) {
		return nil, dErrors.New(dErrors.CodePermissionDenied, "only the record creator or an administrator may modify this record")
	}
	return record, nil
}

// withTx runs fn inside a SQL transaction when a database handle is present,
// exposing the transaction to stores through context. Without a handle fn
// runs as-is.
func (s *Service) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.db == nil {
		return fn(ctx)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
	}
	if err := fn(txcontext.WithTx(ctx, sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
	}
	return nil
}

// afterMutation publishes the change and invalidates the list cache. Both are
// best effort: the mutation is already durable, and viewers reconcile through
// the feed or the cache TTL.
func (s *Service) afterMutation(ctx context.Context, recordID id.RecordID, kind feed.Kind, table string) {
	if err := s.feed.Publish(ctx, feed.Change{RecordID: recordID, Kind: kind, Table: table}); err != nil {
		s.logger.WarnContext(ctx, "change feed publish failed",
			"record_id", recordID,
			"error", err,
		)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, listCacheKey); err != nil {
			s.logger.WarnContext(ctx, "list cache invalidation failed", "error", err)
		}
	}
}

func (s *Service) appendOutbox(ctx context.Context, record *models.Record, eventType models.EventType, actorID id.UserID, at time.Time) error {
	if s.outbox == nil {
		return nil
	}
	entry, err := outbox.NewEntry(record, eventType, actorID, at)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build outbox entry")
	}
	if err := s.outbox.Append(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "append outbox entry")
	}
	return nil
}

// AggregateLoader adapts Get for the change-feed reconciler.
func (s *Service) AggregateLoader() func(ctx context.Context, recordID id.RecordID) (*models.Aggregate, error) {
	return s.Get
}

func translateStoreErr(err error, entity string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, entity+" was modified concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, entity+" store failure")
	}
}
