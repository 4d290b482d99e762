package events

import (
	"time"

	"github.com/spec-kit/support-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketMessageAdded  EventType = "ticket_message_added"
	EventUserCreated         EventType = "user_created"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// ActorFrom builds an Actor from the request principal.
func ActorFrom(p domain.Principal) Actor {
	return Actor{UserID: p.ID, Role: p.Role}
}

// Event represents a domain event emitted after a committed mutation.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Number   string                `json:"number"`
	Subject  string                `json:"subject"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Ticket          domain.Ticket      `json:"ticket"`
	OldState        domain.TicketState `json:"old_state"`
	NewState        domain.TicketState `json:"new_state"`
	ResolutionNotes string             `json:"resolution_notes,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Ticket             domain.Ticket      `json:"ticket"`
	OldState           domain.TicketState `json:"old_state"`
	AssigneeID         string             `json:"assignee_id"`
	PreviousAssigneeID *string            `json:"previous_assignee_id,omitempty"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID   string `json:"message_id"`
	AuthorID    string `json:"author_id"`
	BodyPreview string `json:"body_preview"`
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}
