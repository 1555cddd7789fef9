// Package models defines the non-conformance record aggregate and its
// dependent entities. Stores persist these shapes verbatim; services enforce
// the invariants around them.
package models

import (
	"strings"
	"time"

	id "nonconf/pkg/domain"
	dErrors "nonconf/pkg/domain-errors"
)

// RecordType classifies the origin of a non-conformance.
type RecordType string

const (
	RecordTypeSupplier  RecordType = "supplier"
	RecordTypeInternal  RecordType = "internal"
	RecordTypeCustomer  RecordType = "customer"
	RecordTypeLogistics RecordType = "logistics"
)

func (t RecordType) IsValid() bool {
	switch t {
	case RecordTypeSupplier, RecordTypeInternal, RecordTypeCustomer, RecordTypeLogistics:
		return true
	}
	return false
}

// Department names the area responsible for working the record.
type Department string

const (
	DepartmentQuality    Department = "quality"
	DepartmentProduction Department = "production"
	DepartmentLogistics  Department = "logistics"
	DepartmentCommercial Department = "commercial"
	DepartmentPurchasing Department = "purchasing"
)

func (d Department) IsValid() bool {
	switch d {
	case DepartmentQuality, DepartmentProduction, DepartmentLogistics,
		DepartmentCommercial, DepartmentPurchasing:
		return true
	}
	return false
}

// Priority ranks how urgently a record must be worked.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Record is the non-conformance aggregate root.
//
// Invariants enforced by the service layer:
//   - Sequence is assigned once at creation and never changes.
//   - Status only moves along adjacent edges of the workflow graph, each move
//     producing exactly one Transition row and one status-change Event.
//   - AssignedTo/AssignedBy/AssignedAt are set together or not at all.
//   - ClosedAt is set exactly once, on the transition into StatusClosed.
//   - Version is a compare-and-swap counter; stores reject stale full-row
//     writes with sentinel.ErrConflict.
type Record struct {
	ID          id.RecordID
	Sequence    int64
	Type        RecordType
	Department  Department
	Priority    Priority
	Description string

	Status Status

	AssignedTo *id.UserID
	AssignedBy *id.UserID
	AssignedAt *time.Time

	OrderRef   string
	InvoiceRef string
	ReturnRef  string

	CreatedBy   id.UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
	CollectedAt *time.Time

	Version int64
}

// Assigned reports whether the assignment triple is set. The three fields move
// together, so checking one is checking all.
func (r *Record) Assigned() bool { return r.AssignedTo != nil }

// Validate checks field-level invariants at the creation boundary.
func (r *Record) Validate() error {
	if !r.Type.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown record type")
	}
	if !r.Department.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown department")
	}
	if !r.Priority.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown priority")
	}
	if strings.TrimSpace(r.Description) == "" {
		return dErrors.New(dErrors.CodeValidation, "description is required")
	}
	return nil
}
