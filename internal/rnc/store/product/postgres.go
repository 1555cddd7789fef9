// Package product persists record product line items.
package product

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

func (s *PostgresStore) Create(ctx context.Context, product *models.Product) error {
	_, err := s.runner(ctx).ExecContext(ctx, `
		INSERT INTO record_products (id, record_id, name, weight)
		VALUES ($1, $2, $3, $4)
	`,
		uuid.UUID(product.ID),
		uuid.UUID(product.RecordID),
		product.Name,
		product.Weight,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRecord(ctx context.Context, recordID id.RecordID) ([]*models.Product, error) {
	rows, err := s.runner(ctx).QueryContext(ctx, `
		SELECT id, record_id, name, weight
		FROM record_products
		WHERE record_id = $1
		ORDER BY name
	`, uuid.UUID(recordID))
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		var (
			product   models.Product
			productID uuid.UUID
			owner     uuid.UUID
		)
		if err := rows.Scan(&productID, &owner, &product.Name, &product.Weight); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		product.ID = id.ProductID(productID)
		product.RecordID = id.RecordID(owner)
		products = append(products, &product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// DeleteByRecord removes all line items for the record in one statement and
// reports how many went away.
func (s *PostgresStore) DeleteByRecord(ctx context.Context, recordID id.RecordID) (int64, error) {
	result, err := s.runner(ctx).ExecContext(ctx,
		`DELETE FROM record_products WHERE record_id = $1`, uuid.UUID(recordID))
	if err != nil {
		return 0, fmt.Errorf("delete products: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete products rows affected: %w", err)
	}
	return affected, nil
}
