package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/service"
)

// MessagesHandler serves ticket threads.
type MessagesHandler struct {
	messages *service.MessageService
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(messageService *service.MessageService) *MessagesHandler {
	return &MessagesHandler{messages: messageService}
}

// ListMessages GET /tickets/:id/messages.
func (h *MessagesHandler) ListMessages(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	msgs, err := h.messages.List(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": messageResponses(msgs)})
}

// PostMessage POST /tickets/:id/messages.
func (h *MessagesHandler) PostMessage(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	var req dto.MessageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	msg, err := h.messages.Post(c.UserContext(), p, id, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

// EditMessage PUT /messages/:id.
func (h *MessagesHandler) EditMessage(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "message")
	if err != nil {
		return err
	}
	var req dto.MessageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	msg, err := h.messages.Edit(c.UserContext(), p, id, req.Body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": messageResponse(msg)})
}

// DeleteMessage DELETE /messages/:id.
func (h *MessagesHandler) DeleteMessage(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "message")
	if err != nil {
		return err
	}
	if err := h.messages.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func messageResponse(msg *domain.TicketMessage) dto.TicketMessageResponse {
	return dto.TicketMessageResponse{
		ID:         msg.ID,
		TicketID:   msg.TicketID,
		Type:       msg.Type,
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Body:       msg.Body,
		CreatedAt:  msg.CreatedAt,
		UpdatedAt:  msg.UpdatedAt,
	}
}

func messageResponses(msgs []domain.TicketMessage) []dto.TicketMessageResponse {
	out := make([]dto.TicketMessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, messageResponse(&msgs[i]))
	}
	return out
}
