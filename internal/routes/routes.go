package routes

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/atendezap/atende-backend/internal/handlers"
	"github.com/atendezap/atende-backend/internal/middleware"
	"github.com/atendezap/atende-backend/internal/models"
)

// Handlers bundles the constructed handlers for route registration
type Handlers struct {
	Webhook   *handlers.WebhookHandler
	Chat      *handlers.ChatHandler
	Message   *handlers.MessageHandler
	Attendant *handlers.AttendantHandler
	Contact   *handlers.ContactHandler
	Config    *handlers.ConfigHandler
	Health    *handlers.HealthHandler
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h *Handlers) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to AtendeZap Backend!",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":        "/health",
				"api":           "/api",
				"webhook":       "/webhook/whatsapp",
				"test_whatsapp": "/test/whatsapp",
			},
		})
	})

	app.Get("/health", h.Health.Check)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		webhooks.Post("/whatsapp", h.Webhook.HandleWebhook)
		println("⚠️  WhatsApp webhook validation DISABLED for development")
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(), h.Webhook.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	if os.Getenv("ENVIRONMENT") == "development" {
		app.Post("/test/whatsapp", h.Webhook.HandleTestWebhook)
	}

	// ========== API ROUTES ==========
	api := app.Group("/api")

	user := middleware.RequirePermission(models.PermissionUser, models.PermissionAdmin)
	admin := middleware.RequirePermission(models.PermissionAdmin)

	// Chat lifecycle
	chats := api.Group("/chats")
	chats.Post("/start", user, h.Chat.StartChat)
	chats.Post("/transfer", user, h.Chat.TransferChat)
	chats.Post("/finish", user, h.Chat.FinishChat)
	chats.Get("/", admin, h.Chat.ListChats)
	chats.Get("/attendant/:attendantId", user, h.Chat.ListChatsByAttendant)
	chats.Get("/:phone", user, h.Chat.GetChat)

	// Outbound messages (24h window enforced by the service)
	messages := api.Group("/messages", user)
	messages.Post("/text", h.Message.SendText)
	messages.Post("/image", h.Message.SendImage)
	messages.Post("/video", h.Message.SendVideo)
	messages.Post("/document", h.Message.SendDocument)
	messages.Post("/template", h.Message.SendTemplate)

	// Attendant directory
	attendants := api.Group("/attendants")
	attendants.Post("/login", h.Attendant.Login)
	attendants.Post("/", admin, h.Attendant.Create)
	attendants.Get("/", user, h.Attendant.List)
	attendants.Get("/:attendantId", user, h.Attendant.Get)
	attendants.Put("/:attendantId", admin, h.Attendant.Update)

	// Contact registry
	contacts := api.Group("/contacts", user)
	contacts.Get("/", h.Contact.List)
	contacts.Get("/:phone", h.Contact.Get)

	// Chat configuration
	config := api.Group("/config")
	config.Get("/", user, h.Config.Get)
	config.Put("/", admin, h.Config.Update)
}
