package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
	txcontext "nonconf/pkg/platform/tx"
)

// PostgresStore persists outbox rows. Append joins the caller's transaction
// when one is in context, which is what makes the outbox transactional.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) runner(ctx context.Context) dbRunner {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	_, err := s.runner(ctx).ExecContext(ctx, `
		INSERT INTO outbox (id, record_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		entry.ID,
		uuid.UUID(entry.RecordID),
		string(entry.EventType),
		entry.Payload,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListUnpublished(ctx context.Context, limit int) ([]*Entry, error) {
	rows, err := s.runner(ctx).QueryContext(ctx, `
		SELECT id, record_id, event_type, payload, created_at, published_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			entry     Entry
			recordID  uuid.UUID
			eventType string
		)
		err := rows.Scan(&entry.ID, &recordID, &eventType, &entry.Payload,
			&entry.CreatedAt, &entry.PublishedAt)
		if err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entry.RecordID = id.RecordID(recordID)
		entry.EventType = models.EventType(eventType)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) MarkPublished(ctx context.Context, entryID uuid.UUID, at time.Time) error {
	_, err := s.runner(ctx).ExecContext(ctx,
		`UPDATE outbox SET published_at = $2 WHERE id = $1`, entryID, at)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
