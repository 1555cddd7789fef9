package models

import (
	"strings"
	"time"

	id "nonconf/pkg/domain"
	dErrors "nonconf/pkg/domain-errors"
)

// Product is a line item owned by exactly one record. It has no independent
// lifecycle: deleting the record deletes its products.
type Product struct {
	ID       id.ProductID
	RecordID id.RecordID
	Name     string
	Weight   float64
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "product name is required")
	}
	if p.Weight <= 0 {
		return dErrors.New(dErrors.CodeValidation, "product weight must be positive")
	}
	return nil
}

// Contact is a person tied to exactly one record. Email is optional.
type Contact struct {
	ID       id.ContactID
	RecordID id.RecordID
	Name     string
	Phone    string
	Email    string
}

func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "contact name is required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return dErrors.New(dErrors.CodeValidation, "contact phone is required")
	}
	return nil
}

// EventType enumerates the audit trail entry kinds.
type EventType string

const (
	EventTypeCreation     EventType = "creation"
	EventTypeAssignment   EventType = "assignment"
	EventTypeComment      EventType = "comment"
	EventTypeCollection   EventType = "collection"
	EventTypeClosure      EventType = "closure"
	EventTypeStatusChange EventType = "status-change"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventTypeCreation, EventTypeAssignment, EventTypeComment,
		EventTypeCollection, EventTypeClosure, EventTypeStatusChange:
		return true
	}
	return false
}

// Event is an append-only audit entry. Comments are events with
// Type == EventTypeComment and a non-empty Comment body; they are the only
// event kind that can ever be deleted, and only by their author or an admin.
type Event struct {
	ID          id.EventID
	RecordID    id.RecordID
	Type        EventType
	Title       string
	Description string
	Comment     string
	CreatedBy   id.UserID
	CreatedAt   time.Time
}

// Transition records one workflow status change. Rows are append-only and
// survive until the owning record is deleted.
type Transition struct {
	ID        id.TransitionID
	RecordID  id.RecordID
	From      Status
	To        Status
	Notes     string
	CreatedBy id.UserID
	CreatedAt time.Time
}

// Aggregate is the full read model pushed to change-feed subscribers: the
// record plus every dependent collection, fetched fresh after each mutation.
type Aggregate struct {
	Record   *Record
	Products []*Product
	Contacts []*Contact
	Events   []*Event
}
