package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "nonconf/pkg/domain"
	"nonconf/pkg/platform/sentinel"
	txcontext "nonconf/pkg/platform/tx"
)

// PostgresStore implements Store on PostgreSQL.
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

func (s *PostgresStore) Create(ctx context.Context, notification *Notification) error {
	_, err := s.runner(ctx).ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, record_id, title, message, read, created_at, delivered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		uuid.UUID(notification.ID),
		uuid.UUID(notification.UserID),
		uuid.UUID(notification.RecordID),
		notification.Title,
		notification.Message,
		notification.Read,
		notification.CreatedAt,
		notification.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*Notification, error) {
	rows, err := s.runner(ctx).QueryContext(ctx, `
		SELECT id, user_id, record_id, title, message, read, created_at, delivered_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// MarkRead flips the read flag. Scoped by recipient so a user cannot mark
// another user's notification.
func (s *PostgresStore) MarkRead(ctx context.Context, notificationID id.NotificationID, userID id.UserID) error {
	result, err := s.runner(ctx).ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
	`, uuid.UUID(notificationID), uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListUndelivered(ctx context.Context, limit int) ([]*Notification, error) {
	rows, err := s.runner(ctx).QueryContext(ctx, `
		SELECT id, user_id, record_id, title, message, read, created_at, delivered_at
		FROM notifications
		WHERE delivered_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query undelivered notifications: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (s *PostgresStore) MarkDelivered(ctx context.Context, notificationID id.NotificationID, at time.Time) error {
	_, err := s.runner(ctx).ExecContext(ctx, `
		UPDATE notifications SET delivered_at = $2 WHERE id = $1
	`, uuid.UUID(notificationID), at)
	if err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByRecord(ctx context.Context, recordID id.RecordID) (int64, error) {
	result, err := s.runner(ctx).ExecContext(ctx,
		`DELETE FROM notifications WHERE record_id = $1`, uuid.UUID(recordID))
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete notifications rows affected: %w", err)
	}
	return affected, nil
}

func scanNotifications(rows *sql.Rows) ([]*Notification, error) {
	var notifications []*Notification
	for rows.Next() {
		var (
			notification   Notification
			notificationID uuid.UUID
			userID         uuid.UUID
			recordID       uuid.UUID
		)
		err := rows.Scan(
			&notificationID,
			&userID,
			&recordID,
			&notification.Title,
			&notification.Message,
			&notification.Read,
			&notification.CreatedAt,
			&notification.DeliveredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notification.ID = id.NotificationID(notificationID)
		notification.UserID = id.UserID(userID)
		notification.RecordID = id.RecordID(recordID)
		notifications = append(notifications, &notification)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}
