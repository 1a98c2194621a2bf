package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/atendezap/atende-backend/internal/services"
)

// MessageHandler exposes outbound messaging to the attendant console. All
// free-form sends require an open 24h window; templates are exempt.
type MessageHandler struct {
	chatService *services.ChatService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(chatService *services.ChatService) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

type sendTextRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type sendMediaRequest struct {
	To       string `json:"to"`
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

type sendTemplateRequest struct {
	To         string            `json:"to"`
	ContentSID string            `json:"content_sid"`
	Variables  map[string]string `json:"variables"`
}

// SendText sends a plain text message
func (h *MessageHandler) SendText(c *fiber.Ctx) error {
	var req sendTextRequest
	if err := c.BodyParser(&req); err != nil || req.To == "" || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "to and text are required",
		})
	}
	if err := h.chatService.SendTextMessage(req.To, req.Text); err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Mensagem enviada com sucesso"})
}

// SendImage sends an image by URL
func (h *MessageHandler) SendImage(c *fiber.Ctx) error {
	var req sendMediaRequest
	if err := c.BodyParser(&req); err != nil || req.To == "" || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "to and url are required",
		})
	}
	if err := h.chatService.SendImageMessage(req.To, req.URL, req.Caption); err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Imagem enviada com sucesso"})
}

// SendVideo sends a video by URL
func (h *MessageHandler) SendVideo(c *fiber.Ctx) error {
	var req sendMediaRequest
	if err := c.BodyParser(&req); err != nil || req.To == "" || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "to and url are required",
		})
	}
	if err := h.chatService.SendVideoMessage(req.To, req.URL, req.Caption); err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Vídeo enviado com sucesso"})
}

// SendDocument sends a document by URL
func (h *MessageHandler) SendDocument(c *fiber.Ctx) error {
	var req sendMediaRequest
	if err := c.BodyParser(&req); err != nil || req.To == "" || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "to and url are required",
		})
	}
	if err := h.chatService.SendDocumentMessage(req.To, req.URL, req.Caption, req.Filename); err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Documento enviado com sucesso"})
}

// SendTemplate sends an approved template message. Can open conversations
// outside the 24h window.
func (h *MessageHandler) SendTemplate(c *fiber.Ctx) error {
	var req sendTemplateRequest
	if err := c.BodyParser(&req); err != nil || req.To == "" || req.ContentSID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "to and content_sid are required",
		})
	}
	if err := h.chatService.SendTemplateMessage(req.To, req.ContentSID, req.Variables); err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Template enviado com sucesso"})
}
