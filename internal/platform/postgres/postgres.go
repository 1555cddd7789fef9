// Package postgres opens the SQL connection the stores share and carries the
// logical schema. Foreign keys reference records.id without ON DELETE CASCADE
// on purpose: cascade order is application-managed by the deletion
// orchestrator so each stage stays observable and testable.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// Schema is the full logical schema. Applied by deployment tooling and by the
// integration-test container manager.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
	id              UUID PRIMARY KEY,
	sequence_number BIGSERIAL NOT NULL UNIQUE,
	record_type     TEXT NOT NULL,
	department      TEXT NOT NULL,
	priority        TEXT NOT NULL,
	description     TEXT NOT NULL,
	status          TEXT NOT NULL,
	assigned_to     UUID,
	assigned_by     UUID,
	assigned_at     TIMESTAMPTZ,
	order_ref       TEXT NOT NULL DEFAULT '',
	invoice_ref     TEXT NOT NULL DEFAULT '',
	return_ref      TEXT NOT NULL DEFAULT '',
	created_by      UUID NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	closed_at       TIMESTAMPTZ,
	collected_at    TIMESTAMPTZ,
	version         BIGINT NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS record_products (
	id        UUID PRIMARY KEY,
	record_id UUID NOT NULL REFERENCES records(id),
	name      TEXT NOT NULL,
	weight    DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS record_products_record_idx ON record_products (record_id);

CREATE TABLE IF NOT EXISTS record_contacts (
	id        UUID PRIMARY KEY,
	record_id UUID NOT NULL REFERENCES records(id),
	name      TEXT NOT NULL,
	phone     TEXT NOT NULL,
	email     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS record_contacts_record_idx ON record_contacts (record_id);

CREATE TABLE IF NOT EXISTS record_events (
	id          UUID PRIMARY KEY,
	record_id   UUID NOT NULL REFERENCES records(id),
	event_type  TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	comment     TEXT NOT NULL DEFAULT '',
	created_by  UUID NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS record_events_record_idx ON record_events (record_id);

CREATE TABLE IF NOT EXISTS record_workflow_transitions (
	id          UUID PRIMARY KEY,
	record_id   UUID NOT NULL REFERENCES records(id),
	from_status TEXT NOT NULL,
	to_status   TEXT NOT NULL,
	notes       TEXT NOT NULL DEFAULT '',
	created_by  UUID NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS record_transitions_record_idx ON record_workflow_transitions (record_id);

CREATE TABLE IF NOT EXISTS notifications (
	id           UUID PRIMARY KEY,
	user_id      UUID NOT NULL,
	record_id    UUID NOT NULL REFERENCES records(id),
	title        TEXT NOT NULL,
	message      TEXT NOT NULL,
	read         BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL,
	delivered_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id);
CREATE INDEX IF NOT EXISTS notifications_record_idx ON notifications (record_id);

CREATE TABLE IF NOT EXISTS outbox (
	id           UUID PRIMARY KEY,
	record_id    UUID NOT NULL,
	event_type   TEXT NOT NULL,
	payload      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS outbox_unpublished_idx ON outbox (created_at) WHERE published_at IS NULL;
`

// ApplySchema creates all tables. Idempotent.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
