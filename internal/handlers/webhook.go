package handlers

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/atendezap/atende-backend/internal/models"
	"github.com/atendezap/atende-backend/internal/services"
)

// WebhookHandler receives inbound WhatsApp events from Twilio
type WebhookHandler struct {
	chatService *services.ChatService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(chatService *services.ChatService) *WebhookHandler {
	return &WebhookHandler{chatService: chatService}
}

// TwilioWebhookPayload represents an inbound WhatsApp event from Twilio
type TwilioWebhookPayload struct {
	MessageSid        string `form:"MessageSid"`
	SmsStatus         string `form:"SmsStatus"`
	MessageStatus     string `form:"MessageStatus"`
	From              string `form:"From"` // "whatsapp:+5511987654321"
	To                string `form:"To"`
	Body              string `form:"Body"`
	ProfileName       string `form:"ProfileName"`
	ButtonPayload     string `form:"ButtonPayload"`
	ButtonText        string `form:"ButtonText"`
	NumMedia          string `form:"NumMedia"`
	MediaUrl0         string `form:"MediaUrl0"`
	MediaContentType0 string `form:"MediaContentType0"`
	Latitude          string `form:"Latitude"`
	Longitude         string `form:"Longitude"`
}

// HandleWebhook processes one inbound event. Twilio retries on non-2xx, so
// the webhook always acknowledges: processing failures are logged, never
// surfaced as errors to Twilio.
func (h *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("⚠️ Error parsing webhook payload: %v", err)
		return c.SendStatus(fiber.StatusOK)
	}

	msg := payload.toMessage()
	if msg.IsStatusUpdate() {
		return c.SendStatus(fiber.StatusOK)
	}

	log.Printf("📱 WhatsApp message from %s (type %s)", msg.From, msg.Type)

	if err := h.chatService.ProcessIncomingMessage(msg); err != nil {
		log.Printf("❌ Error processing message from %s: %v", msg.From, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// toMessage normalizes the Twilio form payload into the engine's message
// representation, one variant per message sub-type.
func (p *TwilioWebhookPayload) toMessage() *models.Message {
	msg := &models.Message{
		MessageID:   p.MessageSid,
		From:        p.From,
		ProfileName: p.ProfileName,
		Timestamp:   time.Now(),
	}

	switch {
	case p.MessageStatus != "" && p.Body == "" && p.ButtonPayload == "":
		// Delivery/read receipt for an outbound message.
		msg.Type = models.MessageTypeStatusUpdate
	case p.ButtonPayload != "":
		msg.Type = models.MessageTypeButton
		msg.ButtonID = p.ButtonPayload
		msg.ButtonTitle = p.ButtonText
	case p.Latitude != "" && p.Longitude != "":
		msg.Type = models.MessageTypeLocation
	case p.NumMedia != "" && p.NumMedia != "0":
		msg.Type = mediaType(p.MediaContentType0)
		msg.Text = p.Body
	default:
		msg.Type = models.MessageTypeText
		msg.Text = p.Body
	}
	return msg
}

func mediaType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.MessageTypeImage
	case strings.HasPrefix(contentType, "video/"):
		return models.MessageTypeVideo
	case strings.HasPrefix(contentType, "audio/"):
		return models.MessageTypeAudio
	default:
		return models.MessageTypeDocument
	}
}

// TestWebhookPayload is a JSON shortcut for exercising the state machine in
// development without Twilio form encoding.
type TestWebhookPayload struct {
	From     string `json:"from"`
	Message  string `json:"message"`
	ButtonID string `json:"button_id"`
	Name     string `json:"name"`
}

// HandleTestWebhook processes a simulated inbound message (for development)
func (h *WebhookHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	log.Printf("🧪 Test webhook from %s: %q (button %q)", payload.From, payload.Message, payload.ButtonID)

	msg := &models.Message{
		From:        payload.From,
		Type:        models.MessageTypeText,
		Text:        payload.Message,
		ProfileName: payload.Name,
		Timestamp:   time.Now(),
	}
	if payload.ButtonID != "" {
		msg.Type = models.MessageTypeInteractive
		msg.ButtonID = payload.ButtonID
	}

	if err := h.chatService.ProcessIncomingMessage(msg); err != nil {
		log.Printf("❌ Error processing test message: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "processed"})
}

func parseIntQuery(c *fiber.Ctx, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
