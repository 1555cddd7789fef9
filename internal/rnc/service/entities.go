package service

import (
	"context"

	"nonconf/internal/feed"
	"nonconf/internal/policy"
	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
	dErrors "nonconf/pkg/domain-errors"
)

// AddProduct attaches a product line item to the record.
func (s *Service) AddProduct(ctx context.Context, actor policy.Actor, recordID id.RecordID, name string, weight float64) (*models.Product, error) {
	record, err := s.authorizeMutation(ctx, actor, recordID)
	if err != nil {
		return nil, err
	}
	product := &models.Product{
		ID:       id.NewProductID(),
		RecordID: record.ID,
		Name:     name,
		Weight:   weight,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create product")
	}

	s.afterMutation(ctx, record.ID, feed.KindInsert, "record_products")
	return product, nil
}

// AddContact attaches a contact to the record.
func (s *Service) AddContact(ctx context.Context, actor policy.Actor, recordID id.RecordID, name, phone, email string) (*models.Contact, error) {
	record, err := s.authorizeMutation(ctx, actor, recordID)
	if err != nil {
		return nil, err
	}
	contact := &models.Contact{
		ID:       id.NewContactID(),
		RecordID: record.ID,
		Name:     name,
		Phone:    phone,
		Email:    email,
	}
	if err := contact.Validate(); err != nil {
		return nil, err
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create contact")
	}

	s.afterMutation(ctx, record.ID, feed.KindInsert, "record_contacts")
	return contact, nil
}

// Transitions returns the record's workflow history, oldest first.
func (s *Service) Transitions(ctx context.Context, recordID id.RecordID) ([]*models.Transition, error) {
	if _, err := s.records.Get(ctx, recordID); err != nil {
		return nil, translateStoreErr(err, "record")
	}
	transitions, err := s.transitions.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list transitions")
	}
	return transitions, nil
}
