package repositories

import (
	"context"
	"fmt"

	"contacts/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create inserts a new user. A taken email yields ErrDuplicate.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByVerificationToken retrieves the user whose verification is pending on token.
func (r *GORMUserRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return r.first(ctx, "verification_token = ?", token)
}

func (r *GORMUserRepository) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to get user where %s: %w", query, translate(err))
	}
	return &user, nil
}

func (r *GORMUserRepository) MarkVerified(ctx context.Context, token string) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("verification_token = ? AND is_verified = ?", token, false).
		Updates(map[string]interface{}{
			"is_verified":        true,
			"verification_token": gorm.Expr("NULL"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to verify user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GORMUserRepository) UpdateAvatar(ctx context.Context, id uint, avatarURL string) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("avatar_url", avatarURL)
	if res.Error != nil {
		return fmt.Errorf("failed to update avatar for user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
