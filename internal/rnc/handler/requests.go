package handler

import (
	"strings"

	"nonconf/internal/rnc/models"
	"nonconf/internal/rnc/service"
	dErrors "nonconf/pkg/domain-errors"
)

// CreateRecordRequest is the body for POST /records.
type CreateRecordRequest struct {
	Type        string `json:"type"`
	Department  string `json:"department"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	OrderRef    string `json:"order_ref"`
	InvoiceRef  string `json:"invoice_ref"`
	ReturnRef   string `json:"return_ref"`
}

func (r *CreateRecordRequest) ToInput() service.CreateInput {
	return service.CreateInput{
		Type:        models.RecordType(strings.TrimSpace(r.Type)),
		Department:  models.Department(strings.TrimSpace(r.Department)),
		Priority:    models.Priority(strings.TrimSpace(r.Priority)),
		Description: strings.TrimSpace(r.Description),
		OrderRef:    strings.TrimSpace(r.OrderRef),
		InvoiceRef:  strings.TrimSpace(r.InvoiceRef),
		ReturnRef:   strings.TrimSpace(r.ReturnRef),
	}
}

// UpdateRecordRequest is the body for PATCH /records/{id}. The body is a full
// replacement: clients send the complete document, and a ref omitted from the
// body is cleared on the record. Status is not a field here on purpose; status
// moves only through the transition endpoint.
type UpdateRecordRequest struct {
	Type        string `json:"type"`
	Department  string `json:"department"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	OrderRef    string `json:"order_ref"`
	InvoiceRef  string `json:"invoice_ref"`
	ReturnRef   string `json:"return_ref"`
}

func (r *UpdateRecordRequest) ToInput() service.UpdateInput {
	return service.UpdateInput{
		Type:        models.RecordType(strings.TrimSpace(r.Type)),
		Department:  models.Department(strings.TrimSpace(r.Department)),
		Priority:    models.Priority(strings.TrimSpace(r.Priority)),
		Description: strings.TrimSpace(r.Description),
		OrderRef:    strings.TrimSpace(r.OrderRef),
		InvoiceRef:  strings.TrimSpace(r.InvoiceRef),
		ReturnRef:   strings.TrimSpace(r.ReturnRef),
	}
}

// TransitionRequest is the body for POST /records/{id}/transition.
type TransitionRequest struct {
	Target string `json:"target"`
	Notes  string `json:"notes"`
}

func (r *TransitionRequest) ParsedTarget() (models.Status, error) {
	target := models.Status(strings.TrimSpace(r.Target))
	if !target.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown target status")
	}
	return target, nil
}

// AssignRequest is the body for POST /records/{id}/assign.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// AddProductRequest is the body for POST /records/{id}/products.
type AddProductRequest struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// AddContactRequest is the body for POST /records/{id}/contacts.
type AddContactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// CommentRequest is the body for POST /records/{id}/comments.
type CommentRequest struct {
	Body string `json:"body"`
}
