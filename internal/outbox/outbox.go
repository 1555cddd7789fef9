// Package outbox implements the transactional outbox for record events.
// Mutations append a row inside the same transaction as their writes (where
// one exists); the relay worker later produces unpublished rows to Kafka for
// external consumers. In-process viewers do not go through Kafka; they use
// the per-record change feed.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
)

// Entry is one pending or published outbox row.
type Entry struct {
	ID          uuid.UUID
	RecordID    id.RecordID
	EventType   models.EventType
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// Store persists outbox rows.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	ListUnpublished(ctx context.Context, limit int) ([]*Entry, error)
	MarkPublished(ctx context.Context, entryID uuid.UUID, at time.Time) error
}

// payload is the JSON shape produced to Kafka. Field names are part of the
// external contract; consumers deserialize by name.
type payload struct {
	RecordID  string `json:"record_id"`
	Sequence  int64  `json:"sequence_number"`
	EventType string `json:"event_type"`
	Status    string `json:"status"`
	ActorID   string `json:"actor_id"`
	Timestamp string `json:"timestamp"`
}

// NewEntry builds an outbox row for a record event.
func NewEntry(record *models.Record, eventType models.EventType, actorID id.UserID, at time.Time) (*Entry, error) {
	body, err := json.Marshal(payload{
		RecordID:  record.ID.String(),
		Sequence:  record.Sequence,
		EventType: string(eventType),
		Status:    string(record.Status),
		ActorID:   actorID.String(),
		Timestamp: at.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal outbox payload: %w", err)
	}
	return &Entry{
		ID:        uuid.New(),
		RecordID:  record.ID,
		EventType: eventType,
		Payload:   body,
		CreatedAt: at,
	}, nil
}
