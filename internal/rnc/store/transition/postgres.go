// Package transition persists workflow transition rows. Append-only; rows are
// only ever removed wholesale when the owning record is deleted.
package transition

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
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
}

func (s *PostgresStore) runner(ctx context.Context) dbRunner {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, transition *models.Transition) error {
	_, err := s.runner(ctx).ExecContext(ctx, `
		INSERT INTO record_workflow_transitions (id, record_id, from_status, to_status, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		uuid.UUID(transition.ID),
		uuid.UUID(transition.RecordID),
		string(transition.From),
		string(transition.To),
		transition.Notes,
		uuid.UUID(transition.CreatedBy),
		transition.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRecord(ctx context.Context, recordID id.RecordID) ([]*models.Transition, error) {
	rows, err := s.runner(ctx).QueryContext(ctx, `
		SELECT id, record_id, from_status, to_status, notes, created_by, created_at
		FROM record_workflow_transitions
		WHERE record_id = $1
		ORDER BY created_at
	`, uuid.UUID(recordID))
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var transitions []*models.Transition
	for rows.Next() {
		var (
			transition   models.Transition
			transitionID uuid.UUID
			owner        uuid.UUID
			createdBy    uuid.UUID
			from, to     string
		)
		err := rows.Scan(&transitionID, &owner, &from, &to,
			&transition.Notes, &createdBy, &transition.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		transition.ID = id.TransitionID(transitionID)
		transition.RecordID = id.RecordID(owner)
		transition.CreatedBy = id.UserID(createdBy)
		transition.From = models.Status(from)
		transition.To = models.Status(to)
		transitions = append(transitions, &transition)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return transitions, nil
}

func (s *PostgresStore) DeleteByRecord(ctx context.Context, recordID id.RecordID) (int64, error) {
	result, err := s.runner(ctx).ExecContext(ctx,
		`DELETE FROM record_workflow_transitions WHERE record_id = $1`, uuid.UUID(recordID))
	if err != nil {
		return 0, fmt.Errorf("delete transitions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete transitions rows affected: %w", err)
	}
	return affected, nil
}
