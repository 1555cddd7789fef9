// Package event persists the append-only audit trail. There is no update
// operation anywhere in this package: events are immutable once written, and
// the only row-level delete exists for the comment-deletion path.
package event

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
	"nonconf/pkg/platform/sentinel"
	txcontext "nonconf/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) runner(ctx context.Context) dbRunner {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event *models.Event) error {
	_, err := s.runner(ctx).ExecContext(ctx, `
		INSERT INTO record_events (id, record_id, event_type, title, description, comment, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		uuid.UUID(event.ID),
		uuid.UUID(event.RecordID),
		string(event.Type),
		event.Title,
		event.Description,
		event.Comment,
		uuid.UUID(event.CreatedBy),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	row := s.runner(ctx).QueryRowContext(ctx, `
		SELECT id, record_id, event_type, title, description, comment, created_by, created_at
		FROM record_events
		WHERE id = $1
	`, uuid.UUID(eventID))
	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event %s: %w", eventID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query event: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) ListByRecord(ctx context.Context, recordID id.RecordID) ([]*models.Event, error) {
	rows, err := s.runner(ctx).QueryContext(ctx, `
		SELECT id, record_id, event_type, title, description, comment, created_by, created_at
		FROM record_events
		WHERE record_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(recordID))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func (s *PostgresStore) Delete(ctx context.Context, eventID id.EventID) error {
	result, err := s.runner(ctx).ExecContext(ctx,
		`DELETE FROM record_events WHERE id = $1`, uuid.UUID(eventID))
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("event %s: %w", eventID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteByRecord(ctx context.Context, recordID id.RecordID) (int64, error) {
	result, err := s.runner(ctx).ExecContext(ctx,
		`DELETE FROM record_events WHERE record_id = $1`, uuid.UUID(recordID))
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete events rows affected: %w", err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		event     models.Event
		eventID   uuid.UUID
		owner     uuid.UUID
		createdBy uuid.UUID
		eventType string
	)
	err := row.Scan(
		&eventID,
		&owner,
		&eventType,
		&event.Title,
		&event.Description,
		&event.Comment,
		&createdBy,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	event.ID = id.EventID(eventID)
	event.RecordID = id.RecordID(owner)
	event.CreatedBy = id.UserID(createdBy)
	event.Type = models.EventType(eventType)
	return &event, nil
}
