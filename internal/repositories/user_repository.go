package repositories

import (
	"context"

	"contacts/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	// MarkVerified flips the user holding token to verified and clears the
	// token in one statement. It returns ErrNotFound if no user holds it.
	MarkVerified(ctx context.Context, token string) error
	UpdateAvatar(ctx context.Context, id uint, avatarURL string) error
}
