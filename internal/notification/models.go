// Package notification owns the notification rows created as side effects of
// record mutations, and the dispatcher that writes them. Durable row creation
// is the contract boundary; outbound delivery happens out-of-band through the
// mailer collaborator and never rolls back the originating mutation.
package notification

import (
	"context"
	"time"

	id "nonconf/pkg/domain"
)

// Notification is addressed to one recipient and references the originating
// record. Read is the only mutable field from the recipient's side;
// DeliveredAt is delivery-worker bookkeeping.
type Notification struct {
	ID          id.NotificationID
	UserID      id.UserID
	RecordID    id.RecordID
	Title       string
	Message     string
	Read        bool
	CreatedAt   time.Time
	DeliveredAt *time.Time
}

// Store persists notification rows.
//
// Error contract matches the record stores: sentinel.ErrNotFound for missing
// rows, wrapped infrastructure errors otherwise.
type Store interface {
	Create(ctx context.Context, notification *Notification) error
	ListByUser(ctx context.Context, userID id.UserID) ([]*Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID, userID id.UserID) error
	ListUndelivered(ctx context.Context, limit int) ([]*Notification, error)
	MarkDelivered(ctx context.Context, notificationID id.NotificationID, at time.Time) error
	DeleteByRecord(ctx context.Context, recordID id.RecordID) (int64, error)
}
