package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/chatbot"
)

// ChatbotHandler relays messages to the assistant.
type ChatbotHandler struct {
	chat *chatbot.Service
}

// NewChatbotHandler constructs handler.
func NewChatbotHandler(chat *chatbot.Service) *ChatbotHandler {
	return &ChatbotHandler{chat: chat}
}

// Send POST /chatbot/messages.
func (h *ChatbotHandler) Send(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ChatRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	reply, err := h.chat.Send(c.UserContext(), p.ID, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ChatResponse{Reply: reply}})
}

// Clear DELETE /chatbot/history.
func (h *ChatbotHandler) Clear(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.chat.Clear(c.UserContext(), p.ID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
