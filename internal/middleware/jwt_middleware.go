package middleware

import (
	"errors"
	"strings"

	"contacts/internal/models"
	"contacts/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const currentUserKey = "current_user"

// AuthRequired is a Fiber middleware that resolves the bearer token to a
// user and stores it for subsequent handlers.
func AuthRequired(authService *services.AuthService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return unauthorized(c, "Not authenticated")
		}

		user, err := authService.ResolveCurrentUser(c.UserContext(), parts[1])
		switch {
		case err == nil:
		case errors.Is(err, services.ErrUnauthenticated):
			log.Debug("bearer token rejected", zap.Error(err))
			return unauthorized(c, "Could not validate credentials")
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "User not found",
			})
		default:
			return err
		}

		c.Locals(currentUserKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired, or nil on routes
// without it.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserKey).(*models.User)
	return user
}

func unauthorized(c *fiber.Ctx, detail string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"detail": detail,
	})
}
