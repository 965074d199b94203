package services

import (
	"context"
	"errors"

	"contacts/internal/models"
	"contacts/internal/repositories"
)

// ContactService handles business logic related to contacts.
//
// Reads, updates and deletes are not scoped to the caller: any contact id is
// reachable by anyone who can reach the endpoint.
type ContactService struct {
	repo repositories.ContactRepository
}

// NewContactService creates a new ContactService.
func NewContactService(repo repositories.ContactRepository) *ContactService {
	return &ContactService{
		repo: repo,
	}
}

// CreateContact stores contact as owned by owner.
func (s *ContactService) CreateContact(ctx context.Context, owner *models.User, contact models.Contact) (*models.Contact, error) {
	contact.ID = 0
	contact.OwnerID = owner.ID
	if err := s.repo.Create(ctx, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// GetAllContacts retrieves every contact.
func (s *ContactService) GetAllContacts(ctx context.Context) ([]models.Contact, error) {
	return s.repo.GetAll(ctx)
}

// GetContactByID retrieves a single contact by its ID.
func (s *ContactService) GetContactByID(ctx context.Context, id uint) (*models.Contact, error) {
	contact, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrContactNotFound
	}
	return contact, err
}

// UpdateContact overwrites the fields present in patch.
func (s *ContactService) UpdateContact(ctx context.Context, id uint, patch models.ContactPatch) (*models.Contact, error) {
	contact, err := s.repo.Update(ctx, id, patch)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrContactNotFound
	}
	return contact, err
}

// DeleteContact deletes a contact by its ID.
func (s *ContactService) DeleteContact(ctx context.Context, id uint) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrContactNotFound
	}
	return err
}
