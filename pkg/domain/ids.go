// Package domain defines the typed identifiers shared across services. Each ID
// is a distinct UUID-backed type so record, user, and event identifiers cannot
// be mixed up at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "nonconf/pkg/domain-errors"
)

type (
	// UserID identifies an authenticated user (actor, assignee, author).
	UserID uuid.UUID
	// RecordID identifies a non-conformance record aggregate.
	RecordID uuid.UUID
	// ProductID identifies a product line item owned by a record.
	ProductID uuid.UUID
	// ContactID identifies a contact owned by a record.
	ContactID uuid.UUID
	// EventID identifies an audit event, comments included.
	EventID uuid.UUID
	// TransitionID identifies a workflow transition row.
	TransitionID uuid.UUID
	// NotificationID identifies a notification row.
	NotificationID uuid.UUID
)

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ProductID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ContactID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id TransitionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id RecordID) String() string       { return uuid.UUID(id).String() }
func (id ProductID) String() string      { return uuid.UUID(id).String() }
func (id ContactID) String() string      { return uuid.UUID(id).String() }
func (id EventID) String() string        { return uuid.UUID(id).String() }
func (id TransitionID) String() string   { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

// parseUUID enforces the shared parsing invariant: IDs must be valid, non-empty,
// non-nil UUIDs. All typed parsers funnel through it.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be nil")
	}
	return parsed, nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user")
	return UserID(parsed), err
}

func ParseRecordID(raw string) (RecordID, error) {
	parsed, err := parseUUID(raw, "record")
	return RecordID(parsed), err
}

func ParseProductID(raw string) (ProductID, error) {
	parsed, err := parseUUID(raw, "product")
	return ProductID(parsed), err
}

func ParseContactID(raw string) (ContactID, error) {
	parsed, err := parseUUID(raw, "contact")
	return ContactID(parsed), err
}

func ParseTransitionID(raw string) (TransitionID, error) {
	parsed, err := parseUUID(raw, "transition")
	return TransitionID(parsed), err
}

func ParseEventID(raw string) (EventID, error) {
	parsed, err := parseUUID(raw, "event")
	return EventID(parsed), err
}

func ParseNotificationID(raw string) (NotificationID, error) {
	parsed, err := parseUUID(raw, "notification")
	return NotificationID(parsed), err
}

// NewUserID and friends mint fresh identifiers. Stores never generate IDs so
// callers can correlate entities before persistence.
func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewRecordID() RecordID             { return RecordID(uuid.New()) }
func NewProductID() ProductID           { return ProductID(uuid.New()) }
func NewContactID() ContactID           { return ContactID(uuid.New()) }
func NewEventID() EventID               { return EventID(uuid.New()) }
func NewTransitionID() TransitionID     { return TransitionID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }
