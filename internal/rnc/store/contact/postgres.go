// Package contact persists record contacts.
package contact

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

func (s *PostgresStore) Create(ctx context.Context, contact *models.Contact) error {
	_, err := s.runner(ctx).ExecContext(ctx, `
		INSERT INTO record_contacts (id, record_id, name, phone, email)
		VALUES ($1, $2, $3, $4, $5)
	`,
		uuid.UUID(contact.ID),
		uuid.UUID(contact.RecordID),
		contact.Name,
		contact.Phone,
		contact.Email,
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRecord(ctx context.Context, recordID id.RecordID) ([]*models.Contact, error) {
	rows, err := s.runner(ctx).QueryContext(ctx, `
		SELECT id, record_id, name, phone, email
		FROM record_contacts
		WHERE record_id = $1
		ORDER BY name
	`, uuid.UUID(recordID))
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		var (
			contact   models.Contact
			contactID uuid.UUID
			owner     uuid.UUID
		)
		if err := rows.Scan(&contactID, &owner, &contact.Name, &contact.Phone, &contact.Email); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contact.ID = id.ContactID(contactID)
		contact.RecordID = id.RecordID(owner)
		contacts = append(contacts, &contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

func (s *PostgresStore) DeleteByRecord(ctx context.Context, recordID id.RecordID) (int64, error) {
	result, err := s.runner(ctx).ExecContext(ctx,
		`DELETE FROM record_contacts WHERE record_id = $1`, uuid.UUID(recordID))
	if err != nil {
		return 0, fmt.Errorf("delete contacts: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete contacts rows affected: %w", err)
	}
	return affected, nil
}
