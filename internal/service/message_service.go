package service

import (
	"context"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/lifecycle"
	"github.com/spec-kit/support-portal/internal/markup"
	"github.com/spec-kit/support-portal/internal/repository"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// MessageService manages the discussion thread of a ticket.
type MessageService struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	dispatcher events.Dispatcher
}

// NewMessageService constructs the service.
func NewMessageService(tickets repository.TicketRepository, messages repository.TicketMessageRepository, dispatcher events.Dispatcher) *MessageService {
	return &MessageService{tickets: tickets, messages: messages, dispatcher: dispatcher}
}

// Post appends a comment to a ticket the caller can view.
func (s *MessageService) Post(ctx context.Context, p domain.Principal, ticketID, body string) (*domain.TicketMessage, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !lifecycle.CanView(p, ticket) {
		return nil, apperrors.NewForbidden("you do not have access to this ticket")
	}
	clean, err := cleanBody(body)
	if err != nil {
		return nil, err
	}

	authorID := p.ID
	msg := &domain.TicketMessage{
		TicketID:   ticket.ID,
		AuthorID:   &authorID,
		AuthorName: p.Name,
		Type:       domain.MessageTypeComment,
		Body:       clean,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(p),
		Payload: events.TicketMessageAddedPayload{
			MessageID:   msg.ID,
			AuthorID:    authorID,
			BodyPreview: stringPreview(markup.StripHTML(clean), 120),
		},
	})
	return msg, nil
}

// Edit replaces the body of the caller's own message.
func (s *MessageService) Edit(ctx context.Context, p domain.Principal, messageID, body string) (*domain.TicketMessage, error) {
	msg, err := s.fetch(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !msg.IsAuthoredBy(p.ID) {
		return nil, apperrors.NewForbidden("only the author can edit a message")
	}
	clean, err := cleanBody(body)
	if err != nil {
		return nil, err
	}
	msg.Body = clean
	if err := s.messages.UpdateBody(ctx, msg); err != nil {
		return nil, apperrors.NotFoundOr(err, "message", map[string]any{"message_id": messageID})
	}
	return msg, nil
}

// Delete removes a message; allowed for its author and for admins.
func (s *MessageService) Delete(ctx context.Context, p domain.Principal, messageID string) error {
	msg, err := s.fetch(ctx, messageID)
	if err != nil {
		return err
	}
	if !msg.IsAuthoredBy(p.ID) && !p.IsAdmin() {
		return apperrors.NewForbidden("only the author or an admin can delete a message")
	}
	if err := s.messages.Delete(ctx, msg.ID); err != nil {
		return apperrors.NotFoundOr(err, "message", map[string]any{"message_id": messageID})
	}
	return nil
}

// List returns the visible thread of a ticket in creation order.
func (s *MessageService) List(ctx context.Context, p domain.Principal, ticketID string) ([]domain.TicketMessage, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !lifecycle.CanView(p, ticket) {
		return nil, apperrors.NewForbidden("you do not have access to this ticket")
	}
	return s.visible(ctx, ticket.ID)
}

// PostSystem records a generated entry such as a status change.
func (s *MessageService) PostSystem(ctx context.Context, ticketID, actorID, body string) error {
	msg := &domain.TicketMessage{
		TicketID: ticketID,
		Type:     domain.MessageTypeSystemNotification,
		Body:     markup.Sanitize(body),
	}
	if actorID != "" {
		msg.AuthorID = &actorID
	}
	return s.messages.Create(ctx, msg)
}

// visible drops entries whose body carries no content once markup is removed.
func (s *MessageService) visible(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	msgs, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	filtered := make([]domain.TicketMessage, 0, len(msgs))
	for _, msg := range msgs {
		if markup.IsEmpty(msg.Body) {
			continue
		}
		filtered = append(filtered, msg)
	}
	return filtered, nil
}

func (s *MessageService) fetch(ctx context.Context, messageID string) (*domain.TicketMessage, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "message", map[string]any{"message_id": messageID})
	}
	return msg, nil
}

func cleanBody(body string) (string, error) {
	if markup.IsEmpty(body) {
		return "", apperrors.NewValidationError("message cannot be empty", map[string]any{"body": "required"})
	}
	return markup.Sanitize(body), nil
}
