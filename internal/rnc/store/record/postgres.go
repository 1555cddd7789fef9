// Package record persists the record aggregate root.
package record

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

// PostgresStore implements store.RecordStore on PostgreSQL. The sequence
// number comes from the table's BIGSERIAL, so it is assigned exactly once and
// never reused even across deletions.
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

const recordColumns = `
	id, sequence_number, record_type, department, priority, description, status,
	assigned_to, assigned_by, assigned_at,
	order_ref, invoice_ref, return_ref,
	created_by, created_at, updated_at, closed_at, collected_at, version`

// Create inserts the record and reads back the assigned sequence number.
// Version starts at 1.
func (s *PostgresStore) Create(ctx context.Context, record *models.Record) error {
	query := `
		INSERT INTO records (
			id, record_type, department, priority, description, status,
			assigned_to, assigned_by, assigned_at,
			order_ref, invoice_ref, return_ref,
			created_by, created_at, updated_at, closed_at, collected_at, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 1)
		RETURNING sequence_number
	`
	err := s.runner(ctx).QueryRowContext(ctx, query,
		uuid.UUID(record.ID),
		string(record.Type),
		string(record.Department),
		string(record.Priority),
		record.Description,
		string(record.Status),
		nullableUser(record.AssignedTo),
		nullableUser(record.AssignedBy),
		record.AssignedAt,
		record.OrderRef,
		record.InvoiceRef,
		record.ReturnRef,
		uuid.UUID(record.CreatedBy),
		record.CreatedAt,
		record.UpdatedAt,
		record.ClosedAt,
		record.CollectedAt,
	).Scan(&record.Sequence)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	record.Version = 1
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	query := `SELECT` + recordColumns + ` FROM records WHERE id = $1`
	row := s.runner(ctx).QueryRowContext(ctx, query, uuid.UUID(recordID))
	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("record %s: %w", recordID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Record, error) {
	query := `SELECT` + recordColumns + ` FROM records ORDER BY sequence_number DESC`
	rows, err := s.runner(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Update writes the full row guarded by the version counter. A writer holding
// a stale version gets sentinel.ErrConflict and must re-read before retrying.
func (s *PostgresStore) Update(ctx context.Context, record *models.Record) error {
	query := `
		UPDATE records SET
			record_type = $2, department = $3, priority = $4, description = $5, status = $6,
			assigned_to = $7, assigned_by = $8, assigned_at = $9,
			order_ref = $10, invoice_ref = $11, return_ref = $12,
			updated_at = $13, closed_at = $14, collected_at = $15,
			version = version + 1
		WHERE id = $1 AND version = $16
	`
	result, err := s.runner(ctx).ExecContext(ctx, query,
		uuid.UUID(record.ID),
		string(record.Type),
		string(record.Department),
		string(record.Priority),
		record.Description,
		string(record.Status),
		nullableUser(record.AssignedTo),
		nullableUser(record.AssignedBy),
		record.AssignedAt,
		record.OrderRef,
		record.InvoiceRef,
		record.ReturnRef,
		record.UpdatedAt,
		record.ClosedAt,
		record.CollectedAt,
		record.Version,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a stale version from a missing row.
		var exists bool
		err := s.runner(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM records WHERE id = $1)`, uuid.UUID(record.ID),
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check record existence: %w", err)
		}
		if !exists {
			return fmt.Errorf("record %s: %w", record.ID, sentinel.ErrNotFound)
		}
		return fmt.Errorf("record %s version %d is stale: %w", record.ID, record.Version, sentinel.ErrConflict)
	}
	record.Version++
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, recordID id.RecordID) error {
	result, err := s.runner(ctx).ExecContext(ctx,
		`DELETE FROM records WHERE id = $1`, uuid.UUID(recordID))
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record %s: %w", recordID, sentinel.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		record     models.Record
		recordID   uuid.UUID
		createdBy  uuid.UUID
		assignedTo uuid.NullUUID
		assignedBy uuid.NullUUID
		recType    string
		department string
		priority   string
		status     string
	)
	err := row.Scan(
		&recordID,
		&record.Sequence,
		&recType,
		&department,
		&priority,
		&record.Description,
		&status,
		&assignedTo,
		&assignedBy,
		&record.AssignedAt,
		&record.OrderRef,
		&record.InvoiceRef,
		&record.ReturnRef,
		&createdBy,
		&record.CreatedAt,
		&record.UpdatedAt,
		&record.ClosedAt,
		&record.CollectedAt,
		&record.Version,
	)
	if err != nil {
		return nil, err
	}
	record.ID = id.RecordID(recordID)
	record.CreatedBy = id.UserID(createdBy)
	record.Type = models.RecordType(recType)
	record.Department = models.Department(department)
	record.Priority = models.Priority(priority)
	record.Status = models.Status(status)
	if assignedTo.Valid {
		to := id.UserID(assignedTo.UUID)
		record.AssignedTo = &to
	}
	if assignedBy.Valid {
		by := id.UserID(assignedBy.UUID)
		record.AssignedBy = &by
	}
	return &record, nil
}

func nullableUser(userID *id.UserID) uuid.NullUUID {
	if userID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*userID), Valid: true}
}
