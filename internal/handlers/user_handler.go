package handlers

import (
	"contacts/internal/metrics"
	"contacts/internal/middleware"
	"contacts/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler serves profile updates of the authenticated user.
type UserHandler struct {
	service *services.UserService
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewUserHandler(service *services.UserService, m *metrics.Metrics, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		metrics: m,
		log:     log,
	}
}

// RegisterRoutes registers the user routes behind auth.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Put("/users/avatar/", auth, h.HandleUpdateAvatar)
}

// HandleUpdateAvatar uploads the multipart "file" field as the new avatar.
func (h *UserHandler) HandleUpdateAvatar(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"detail": "Validation failed",
			"errors": fiber.Map{"file": "Field 'file' failed on the 'required' tag"},
		})
	}

	file, err := fh.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	user := middleware.CurrentUser(c)
	url, err := h.service.UpdateAvatar(c.UserContext(), user, file, fh.Size, fh.Header.Get(fiber.HeaderContentType))
	h.metrics.AvatarUploadsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		h.log.Error("avatar upload failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return detail(c, fiber.StatusInternalServerError, "Avatar upload failed")
	}

	return c.JSON(fiber.Map{
		"msg":        "Avatar updated",
		"avatar_url": url,
	})
}
