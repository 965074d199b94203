package repositories

import (
	"context"

	"contacts/internal/models"
)

// ContactRepository defines the interface for contact data access.
type ContactRepository interface {
	GetAll(ctx context.Context) ([]models.Contact, error)
	GetByID(ctx context.Context, id uint) (*models.Contact, error)
	Create(ctx context.Context, contact *models.Contact) error
	Update(ctx context.Context, id uint, patch models.ContactPatch) (*models.Contact, error)
	Delete(ctx context.Context, id uint) error
}
