package services

import (
	"context"
	"errors"
	"fmt"

	"contacts/internal/models"
	"contacts/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService handles registration, email verification, login and
// resolution of the caller behind a bearer token.
type AuthService struct {
	userRepo repositories.UserRepository
	hasher   *PasswordHasher
	tokens   *TokenService
	notifier VerificationNotifier
	log      *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repositories.UserRepository,
	hasher *PasswordHasher,
	tokens *TokenService,
	notifier VerificationNotifier,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		log:      log,
	}
}

// Register creates an unverified user and sends out the verification link.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	user := &models.User{
		Email:             email,
		PasswordHash:      hashed,
		IsVerified:        false,
		VerificationToken: &token,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	s.log.Info("user registered", zap.Uint("user_id", user.ID))

	if err := s.notifier.NotifyVerification(ctx, user.Email, token); err != nil {
		s.log.Warn("failed to send verification email", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return user, nil
}

// VerifyEmail consumes a verification token. A token works exactly once.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	if err := s.userRepo.MarkVerified(ctx, token); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to verify email: %w", err)
	}
	return nil
}

// Login checks credentials and returns an access token whose subject is the
// user's email.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", ErrEmailNotVerified
	}

	return s.tokens.Issue(user.Email)
}

// ResolveCurrentUser returns the user a bearer token was issued to.
func (s *AuthService) ResolveCurrentUser(ctx context.Context, token string) (*models.User, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}
	return user, nil
}
