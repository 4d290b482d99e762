// Package notify decides, renders and delivers ticket notification mail.
package notify

import "github.com/spec-kit/support-portal/internal/domain"

// Recipient selects which party of a ticket receives a notice.
type Recipient string

const (
	RecipientAgent    Recipient = "agent"
	RecipientCustomer Recipient = "customer"
)

// Template identifiers.
const (
	TemplateAssignedAgent    = "ticket_assigned_agent"
	TemplateAssignedCustomer = "ticket_assigned_customer"
	TemplateOverdueReminder  = "ticket_overdue_reminder"
	TemplateWelcome          = "user_welcome"
)

// Notice is one mail the policy asks for.
type Notice struct {
	Recipient Recipient
	Template  string
}

// StatusTemplate names the customer template for a status change into state.
func StatusTemplate(state domain.TicketState) string {
	return "ticket_status_" + string(state)
}

// Decide returns the notices a move from old to new produces.
// Moves into new or pending, and unknown states, produce none.
func Decide(old, new domain.TicketState) []Notice {
	switch new {
	case domain.TicketStateAssigned:
		return []Notice{
			{Recipient: RecipientAgent, Template: TemplateAssignedAgent},
			{Recipient: RecipientCustomer, Template: TemplateAssignedCustomer},
		}
	case domain.TicketStateInProgress, domain.TicketStateResolved, domain.TicketStateClosed:
		return []Notice{{Recipient: RecipientCustomer, Template: StatusTemplate(new)}}
	}
	return nil
}
