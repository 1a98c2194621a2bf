package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/atendezap/atende-backend/internal/services"
	"github.com/atendezap/atende-backend/internal/storage"
)

// ContactHandler exposes the contact registry
type ContactHandler struct {
	contactService *services.ContactService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// List returns contacts ordered by most recent inbound message
func (h *ContactHandler) List(c *fiber.Ctx) error {
	limit := parseIntQuery(c, "limit", 300)
	offset := parseIntQuery(c, "offset", 0)

	contacts, err := h.contactService.ListContacts(limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list contacts",
		})
	}
	return c.JSON(fiber.Map{
		"contacts": contacts,
		"count":    len(contacts),
	})
}

// Get returns one contact by phone
func (h *ContactHandler) Get(c *fiber.Ctx) error {
	contact, err := h.contactService.GetByPhone(c.Params("phone"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Contact not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
	return c.JSON(contact)
}
