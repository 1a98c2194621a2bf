package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/atendezap/atende-backend/internal/services"
)

// ChatHandler exposes chat lifecycle operations to the attendant console
type ChatHandler struct {
	chatService *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// StartChatRequest opens (or reopens) a chat from the console
type StartChatRequest struct {
	PhoneNumber string `json:"phone_number"`
	AttendantID string `json:"attendant_id"`
	Category    string `json:"category"`
}

// TransferChatRequest moves a chat to another attendant
type TransferChatRequest struct {
	PhoneNumber    string `json:"phone_number"`
	NewAttendantID string `json:"new_attendant_id"`
}

// StartChat opens a chat bound to an attendant. Reopens closed chats.
func (h *ChatHandler) StartChat(c *fiber.Ctx) error {
	var req StartChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	chat, err := h.chatService.StartChat(req.PhoneNumber, req.AttendantID, req.Category)
	if err != nil {
		return chatError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Sessão iniciada com sucesso",
		"chat":         chat,
		"free_message": h.chatService.CanSendFreeMessage(req.PhoneNumber),
	})
}

// TransferChat reassigns an open chat to another attendant
func (h *ChatHandler) TransferChat(c *fiber.Ctx) error {
	var req TransferChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.chatService.TransferChat(req.PhoneNumber, req.NewAttendantID); err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":      "Atendimento transferido com sucesso",
		"free_message": h.chatService.CanSendFreeMessage(req.PhoneNumber),
	})
}

// FinishChat closes an open chat
func (h *ChatHandler) FinishChat(c *fiber.Ctx) error {
	phone := c.Query("phone_number")
	if phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "phone_number is required",
		})
	}

	if err := h.chatService.FinishChat(phone); err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sessão finalizada com sucesso"})
}

// GetChat returns the current chat for one phone
func (h *ChatHandler) GetChat(c *fiber.Ctx) error {
	chat, err := h.chatService.GetChat(c.Params("phone"))
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{
		"chat":         chat,
		"free_message": h.chatService.CanSendFreeMessage(chat.PhoneNumber),
	})
}

// ListChats returns the latest chat of each client, most recent first (admin)
func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	limit := parseIntQuery(c, "limit", 300)
	offset := parseIntQuery(c, "offset", 0)

	chats, err := h.chatService.ListChats(limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list chats",
		})
	}
	return c.JSON(fiber.Map{
		"chats": chats,
		"count": len(chats),
	})
}

// ListChatsByAttendant returns the chats assigned to one attendant
func (h *ChatHandler) ListChatsByAttendant(c *fiber.Ctx) error {
	attendantID := c.Params("attendantId")
	chats, err := h.chatService.ListChatsByAttendant(attendantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list chats",
		})
	}
	return c.JSON(fiber.Map{
		"chats": chats,
		"count": len(chats),
	})
}

func chatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrChatNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrChatClosed),
		errors.Is(err, services.ErrAttendantNotFound),
		errors.Is(err, services.ErrOutsideWindow):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}
