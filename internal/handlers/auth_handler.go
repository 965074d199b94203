package handlers

import (
	"errors"

	"contacts/internal/metrics"
	"contacts/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles HTTP requests for registration and login.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	metrics     *metrics.Metrics
	log         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, m *metrics.Metrics, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    newValidator(),
		metrics:     m,
		log:         log,
	}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/register/", h.HandleRegister)
	router.Get("/verify-email/", h.HandleVerifyEmail)
	router.Post("/token", h.HandleLogin)
}

// RegisterRequest is the body of POST /register/.
type RegisterRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
	// bcrypt only looks at the first 72 bytes.
	Password string `json:"password" form:"password" validate:"required,max=72"`
}

// HandleRegister creates an unverified user and sends the verification link.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, h.log, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	user, err := h.authService.Register(c.UserContext(), req.Email, req.Password)
	h.metrics.RegistrationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			return detail(c, fiber.StatusConflict, "User with this email already exists")
		}
		return err
	}
	return c.JSON(user)
}

// HandleVerifyEmail consumes the token from a verification link.
func (h *AuthHandler) HandleVerifyEmail(c *fiber.Ctx) error {
	if !c.Context().QueryArgs().Has("token") {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"detail": "Validation failed",
			"errors": fiber.Map{"token": "Field 'token' failed on the 'required' tag"},
		})
	}

	if err := h.authService.VerifyEmail(c.UserContext(), c.Query("token")); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return detail(c, fiber.StatusBadRequest, "Invalid token")
		}
		return err
	}
	return c.JSON(fiber.Map{"msg": "Email verified successfully"})
}

// LoginRequest is the OAuth2 password form; username carries the email.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// HandleLogin checks credentials and issues a bearer token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, h.log, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	token, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	h.metrics.LoginsTotal.WithLabelValues(metrics.Result(err)).Inc()
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidCredentials):
		return detail(c, fiber.StatusUnauthorized, "Incorrect email or password")
	case errors.Is(err, services.ErrEmailNotVerified):
		return detail(c, fiber.StatusUnauthorized, "Email not verified")
	default:
		return err
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}
