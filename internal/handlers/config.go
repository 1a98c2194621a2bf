package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/atendezap/atende-backend/internal/models"
	"github.com/atendezap/atende-backend/internal/services"
)

// ConfigHandler manages the singleton chat configuration
type ConfigHandler struct {
	configService *services.ConfigService
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(configService *services.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

// Get returns the current chat configuration
func (h *ConfigHandler) Get(c *fiber.Ctx) error {
	cfg, err := h.configService.GetConfig()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load configuration",
		})
	}
	return c.JSON(cfg)
}

// Update validates and saves the chat configuration (admin)
func (h *ConfigHandler) Update(c *fiber.Ctx) error {
	var cfg models.ChatConfig
	if err := c.BodyParser(&cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	saved, err := h.configService.SaveConfig(&cfg)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Configuração atualizada com sucesso",
		"config":  saved,
	})
}
