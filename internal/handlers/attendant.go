package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/atendezap/atende-backend/internal/models"
	"github.com/atendezap/atende-backend/internal/services"
	"github.com/atendezap/atende-backend/internal/storage"
)

// AttendantHandler manages the attendant directory and login
type AttendantHandler struct {
	attendantService *services.AttendantService
}

// NewAttendantHandler creates a new attendant handler
func NewAttendantHandler(attendantService *services.AttendantService) *AttendantHandler {
	return &AttendantHandler{attendantService: attendantService}
}

// CreateAttendantRequest registers a new attendant
type CreateAttendantRequest struct {
	Name           string              `json:"name"`
	Login          string              `json:"login"`
	Password       string              `json:"password"`
	Permission     string              `json:"permission"`
	Sectors        []string            `json:"sectors"`
	Clients        []string            `json:"clients"`
	WorkingHours   models.WorkingHours `json:"working_hours"`
	WelcomeMessage string              `json:"welcome_message"`
}

// LoginRequest authenticates an attendant
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Create registers a new attendant (admin)
func (h *AttendantHandler) Create(c *fiber.Ctx) error {
	var req CreateAttendantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	attendant := &models.Attendant{
		Name:           req.Name,
		Login:          req.Login,
		Permission:     req.Permission,
		Sectors:        req.Sectors,
		Clients:        req.Clients,
		WorkingHours:   req.WorkingHours,
		WelcomeMessage: req.WelcomeMessage,
	}
	created, err := h.attendantService.CreateAttendant(attendant, req.Password)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Attendant created successfully",
		"attendant": created,
	})
}

// Login authenticates and returns a JWT
func (h *AttendantHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	attendant, err := h.attendantService.Authenticate(req.Login, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	token, err := h.attendantService.IssueToken(attendant)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to issue token",
		})
	}
	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
		"attendant":    attendant,
	})
}

// Get returns one attendant by id
func (h *AttendantHandler) Get(c *fiber.Ctx) error {
	attendant, err := h.attendantService.GetAttendant(c.Params("attendantId"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Attendant not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
	return c.JSON(attendant)
}

// List returns the whole directory
func (h *AttendantHandler) List(c *fiber.Ctx) error {
	attendants, err := h.attendantService.ListAttendants()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list attendants",
		})
	}
	return c.JSON(fiber.Map{
		"attendants": attendants,
		"count":      len(attendants),
	})
}

// UpdateAttendantRequest is a partial directory update
type UpdateAttendantRequest struct {
	Name           string              `json:"name"`
	Password       string              `json:"password"`
	Permission     string              `json:"permission"`
	Sectors        []string            `json:"sectors"`
	Clients        []string            `json:"clients"`
	WorkingHours   models.WorkingHours `json:"working_hours"`
	WelcomeMessage string              `json:"welcome_message"`
}

// Update applies a partial update to an attendant (admin)
func (h *AttendantHandler) Update(c *fiber.Ctx) error {
	var req UpdateAttendantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	update := &models.Attendant{
		Name:           req.Name,
		Permission:     req.Permission,
		Sectors:        req.Sectors,
		Clients:        req.Clients,
		WorkingHours:   req.WorkingHours,
		WelcomeMessage: req.WelcomeMessage,
	}
	attendant, err := h.attendantService.UpdateAttendant(c.Params("attendantId"), update, req.Password)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Attendant not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message":   "Attendant updated successfully",
		"attendant": attendant,
	})
}
