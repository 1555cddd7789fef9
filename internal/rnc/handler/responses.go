package handler

import (
	"time"

	"nonconf/internal/rnc/models"
)

// RecordResponse is the wire shape of a record.
type RecordResponse struct {
	ID          string     `json:"id"`
	Sequence    int64      `json:"sequence"`
	Type        string     `json:"type"`
	Department  string     `json:"department"`
	Priority    string     `json:"priority"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	AssignedBy  *string    `json:"assigned_by,omitempty"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	OrderRef    string     `json:"order_ref,omitempty"`
	InvoiceRef  string     `json:"invoice_ref,omitempty"`
	ReturnRef   string     `json:"return_ref,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`
}

func FromRecord(record *models.Record) RecordResponse {
	resp := RecordResponse{
		ID:          record.ID.String(),
		Sequence:    record.Sequence,
		Type:        string(record.Type),
		Department:  string(record.Department),
		Priority:    string(record.Priority),
		Description: record.Description,
		Status:      string(record.Status),
		AssignedAt:  record.AssignedAt,
		OrderRef:    record.OrderRef,
		InvoiceRef:  record.InvoiceRef,
		ReturnRef:   record.ReturnRef,
		CreatedBy:   record.CreatedBy.String(),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
		ClosedAt:    record.ClosedAt,
		CollectedAt: record.CollectedAt,
	}
	if record.AssignedTo != nil {
		s := record.AssignedTo.String()
		resp.AssignedTo = &s
	}
	if record.AssignedBy != nil {
		s := record.AssignedBy.String()
		resp.AssignedBy = &s
	}
	return resp
}

func FromRecords(records []*models.Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, FromRecord(record))
	}
	return out
}

// ProductResponse is the wire shape of a product line item.
type ProductResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

func FromProduct(p *models.Product) ProductResponse {
	return ProductResponse{ID: p.ID.String(), Name: p.Name, Weight: p.Weight}
}

// ContactResponse is the wire shape of a contact.
type ContactResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

func FromContact(c *models.Contact) ContactResponse {
	return ContactResponse{ID: c.ID.String(), Name: c.Name, Phone: c.Phone, Email: c.Email}
}

// EventResponse is the wire shape of an audit trail entry.
type EventResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Comment     string    `json:"comment,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromEvent(e *models.Event) EventResponse {
	return EventResponse{
		ID:          e.ID.String(),
		Type:        string(e.Type),
		Title:       e.Title,
		Description: e.Description,
		Comment:     e.Comment,
		CreatedBy:   e.CreatedBy.String(),
		CreatedAt:   e.CreatedAt,
	}
}

// TransitionResponse is the wire shape of one workflow move.
type TransitionResponse struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Notes     string    `json:"notes,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func FromTransitions(transitions []*models.Transition) []TransitionResponse {
	out := make([]TransitionResponse, 0, len(transitions))
	for _, t := range transitions {
		out = append(out, TransitionResponse{
			ID:        t.ID.String(),
			From:      string(t.From),
			To:        string(t.To),
			Notes:     t.Notes,
			CreatedBy: t.CreatedBy.String(),
			CreatedAt: t.CreatedAt,
		})
	}
	return out
}

// AggregateResponse is the full read model for GET /records/{id}.
type AggregateResponse struct {
	Record   RecordResponse    `json:"record"`
	Products []ProductResponse `json:"products"`
	Contacts []ContactResponse `json:"contacts"`
	Events   []EventResponse   `json:"events"`
}

func FromAggregate(a *models.Aggregate) AggregateResponse {
	resp := AggregateResponse{
		Record:   FromRecord(a.Record),
		Products: make([]ProductResponse, 0, len(a.Products)),
		Contacts: make([]ContactResponse, 0, len(a.Contacts)),
		Events:   make([]EventResponse, 0, len(a.Events)),
	}
	for _, p := range a.Products {
		resp.Products = append(resp.Products, FromProduct(p))
	}
	for _, c := range a.Contacts {
		resp.Contacts = append(resp.Contacts, FromContact(c))
	}
	for _, e := range a.Events {
		resp.Events = append(resp.Events, FromEvent(e))
	}
	return resp
}
