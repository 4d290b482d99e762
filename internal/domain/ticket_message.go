package domain

import "time"

// MessageType differentiates user comments from generated entries.
type MessageType string

const (
	MessageTypeComment            MessageType = "comment"
	MessageTypeSystemNotification MessageType = "system_notification"
)

// TicketMessage is one entry of a ticket thread.
type TicketMessage struct {
	ID         string
	TicketID   string
	AuthorID   *string
	AuthorName string
	Type       MessageType
	Body       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsAuthoredBy reports whether userID wrote the message.
func (m *TicketMessage) IsAuthoredBy(userID string) bool {
	return m.AuthorID != nil && *m.AuthorID == userID
}
