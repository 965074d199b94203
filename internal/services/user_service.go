package services

import (
	"context"
	"io"

	"contacts/internal/models"
	"contacts/internal/repositories"

	"go.uber.org/zap"
)

const AvatarFolder = "avatars"

// AvatarStore uploads images to external storage and returns their public URL.
type AvatarStore interface {
	Upload(ctx context.Context, folder string, body io.Reader, size int64, contentType string) (string, error)
}

// UserService manages profile data of existing users.
type UserService struct {
	userRepo repositories.UserRepository
	avatars  AvatarStore
	log      *zap.Logger
}

func NewUserService(userRepo repositories.UserRepository, avatars AvatarStore, log *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		avatars:  avatars,
		log:      log,
	}
}

// UpdateAvatar uploads a new avatar for user and records its URL. Upload
// failures are returned unchanged.
func (s *UserService) UpdateAvatar(ctx context.Context, user *models.User, body io.Reader, size int64, contentType string) (string, error) {
	url, err := s.avatars.Upload(ctx, AvatarFolder, body, size, contentType)
	if err != nil {
		return "", err
	}
	if err := s.userRepo.UpdateAvatar(ctx, user.ID, url); err != nil {
		return "", err
	}
	user.AvatarURL = &url
	s.log.Info("avatar updated", zap.Uint("user_id", user.ID), zap.String("avatar_url", url))
	return url, nil
}
