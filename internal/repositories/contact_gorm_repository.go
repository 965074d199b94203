package repositories

import (
	"context"
	"fmt"

	"contacts/internal/models"

	"gorm.io/gorm"
)

// GORMContactRepository is a GORM implementation of ContactRepository.
type GORMContactRepository struct {
	db *gorm.DB
}

// NewGORMContactRepository creates a new instance of GORMContactRepository.
func NewGORMContactRepository(db *gorm.DB) *GORMContactRepository {
	return &GORMContactRepository{
		db: db,
	}
}

// GetAll retrieves all contacts from the database, oldest first.
func (r *GORMContactRepository) GetAll(ctx context.Context) ([]models.Contact, error) {
	contacts := make([]models.Contact, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to get all contacts: %w", err)
	}
	return contacts, nil
}

// GetByID retrieves a single contact by its ID from the database.
func (r *GORMContactRepository) GetByID(ctx context.Context, id uint) (*models.Contact, error) {
	var contact models.Contact
	if err := r.db.WithContext(ctx).First(&contact, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get contact by ID %d: %w", id, translate(err))
	}
	return &contact, nil
}

// Create creates a new contact in the database.
func (r *GORMContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		return fmt.Errorf("failed to create contact: %w", translate(err))
	}
	return nil
}

// Update writes only the columns present in patch and returns the stored row.
func (r *GORMContactRepository) Update(ctx context.Context, id uint, patch models.ContactPatch) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&contact, id).Error; err != nil {
			return translate(err)
		}
		cols := patch.Columns()
		if len(cols) == 0 {
			return nil
		}
		if err := tx.Model(&contact).Updates(cols).Error; err != nil {
			return err
		}
		return tx.First(&contact, id).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update contact %d: %w", id, err)
	}
	return &contact, nil
}

// Delete deletes a contact by its ID from the database.
func (r *GORMContactRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Contact{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete contact %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("contact %d not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}
