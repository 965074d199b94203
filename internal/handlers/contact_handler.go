package handlers

import (
	"errors"
	"strconv"

	"contacts/internal/metrics"
	"contacts/internal/middleware"
	"contacts/internal/models"
	"contacts/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ContactHandler handles HTTP requests for contacts.
type ContactHandler struct {
	service  *services.ContactService
	validate *validator.Validate
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(service *services.ContactService, m *metrics.Metrics, log *zap.Logger) *ContactHandler {
	return &ContactHandler{
		service:  service,
		validate: newValidator(),
		metrics:  m,
		log:      log,
	}
}

// RegisterRoutes registers the contact routes. createGuards run in order in
// front of contact creation only.
func (h *ContactHandler) RegisterRoutes(router fiber.Router, createGuards ...fiber.Handler) {
	contactRoutes := router.Group("/contacts")
	contactRoutes.Post("/", append(createGuards, h.HandleCreateContact)...)
	contactRoutes.Get("/", h.HandleGetContacts)
	contactRoutes.Get("/:id", h.HandleGetContactByID)
	contactRoutes.Put("/:id", h.HandleUpdateContact)
	contactRoutes.Delete("/:id", h.HandleDeleteContact)
}

// CreateContactRequest requires every field to be present; empty strings
// are accepted.
type CreateContactRequest struct {
	FirstName      *string      `json:"first_name" validate:"required"`
	LastName       *string      `json:"last_name" validate:"required"`
	Email          *string      `json:"email" validate:"required"`
	Phone          *string      `json:"phone" validate:"required"`
	Birthday       *models.Date `json:"birthday" validate:"required"`
	AdditionalInfo *string      `json:"additional_info" validate:"required"`
}

func (r CreateContactRequest) toContact() models.Contact {
	return models.Contact{
		FirstName:      *r.FirstName,
		LastName:       *r.LastName,
		Email:          *r.Email,
		Phone:          *r.Phone,
		Birthday:       *r.Birthday,
		AdditionalInfo: *r.AdditionalInfo,
	}
}

// HandleCreateContact creates a contact owned by the authenticated user.
func (h *ContactHandler) HandleCreateContact(c *fiber.Ctx) error {
	var req CreateContactRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, h.log, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	contact, err := h.service.CreateContact(c.UserContext(), middleware.CurrentUser(c), req.toContact())
	if err != nil {
		return err
	}
	h.metrics.ContactsCreatedTotal.Inc()
	return c.JSON(contact)
}

// HandleGetContacts lists every contact.
func (h *ContactHandler) HandleGetContacts(c *fiber.Ctx) error {
	contacts, err := h.service.GetAllContacts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(contacts)
}

// HandleGetContactByID retrieves a single contact by its ID.
func (h *ContactHandler) HandleGetContactByID(c *fiber.Ctx) error {
	id, ok := contactID(c)
	if !ok {
		return invalidContactID(c)
	}

	contact, err := h.service.GetContactByID(c.UserContext(), id)
	if err != nil {
		return contactError(c, err)
	}
	return c.JSON(contact)
}

// HandleUpdateContact overwrites the fields present in the body.
func (h *ContactHandler) HandleUpdateContact(c *fiber.Ctx) error {
	id, ok := contactID(c)
	if !ok {
		return invalidContactID(c)
	}

	var patch models.ContactPatch
	if err := c.BodyParser(&patch); err != nil {
		return invalidBody(c, h.log, err)
	}

	contact, err := h.service.UpdateContact(c.UserContext(), id, patch)
	if err != nil {
		return contactError(c, err)
	}
	return c.JSON(contact)
}

// HandleDeleteContact deletes a contact by its ID.
func (h *ContactHandler) HandleDeleteContact(c *fiber.Ctx) error {
	id, ok := contactID(c)
	if !ok {
		return invalidContactID(c)
	}

	if err := h.service.DeleteContact(c.UserContext(), id); err != nil {
		return contactError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func contactID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 0)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func invalidContactID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"detail": "Validation failed",
		"errors": fiber.Map{"id": "Field 'id' must be a non-negative integer"},
	})
}

func contactError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrContactNotFound) {
		return detail(c, fiber.StatusNotFound, "Contact not found")
	}
	return err
}
