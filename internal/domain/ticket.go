package domain

import (
	"fmt"
	"time"
)

// TicketState enumerates lifecycle states for tickets.
type TicketState string

const (
	TicketStateNew        TicketState = "new"
	TicketStateAssigned   TicketState = "assigned"
	TicketStateInProgress TicketState = "in_progress"
	TicketStatePending    TicketState = "pending"
	TicketStateResolved   TicketState = "resolved"
	TicketStateClosed     TicketState = "closed"
)

// TicketStates lists every state in display order.
var TicketStates = []TicketState{
	TicketStateNew,
	TicketStateAssigned,
	TicketStateInProgress,
	TicketStatePending,
	TicketStateResolved,
	TicketStateClosed,
}

func (s TicketState) Valid() bool {
	for _, candidate := range TicketStates {
		if s == candidate {
			return true
		}
	}
	return false
}

// Terminal reports whether overdue tracking stops in this state.
func (s TicketState) Terminal() bool {
	return s == TicketStateResolved || s == TicketStateClosed
}

// Label is the human form used in mail subjects, e.g. "In Progress".
func (s TicketState) Label() string {
	switch s {
	case TicketStateNew:
		return "New"
	case TicketStateAssigned:
		return "Assigned"
	case TicketStateInProgress:
		return "In Progress"
	case TicketStatePending:
		return "Pending"
	case TicketStateResolved:
		return "Resolved"
	case TicketStateClosed:
		return "Closed"
	}
	return string(s)
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityUrgent,
}

func (p TicketPriority) Valid() bool {
	for _, candidate := range TicketPriorities {
		if p == candidate {
			return true
		}
	}
	return false
}

// OverdueAfterDays is the age past which an unresolved ticket is overdue.
const OverdueAfterDays = 7

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              string
	Number          string
	Subject         string
	Description     string
	Priority        TicketPriority
	State           TicketState
	ProjectID       *string
	CustomerID      string
	AssignedTo      *string
	AssignedBy      *string
	InternalNotes   string
	ResolutionNotes string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	AssignedDate    *time.Time
	ResolvedDate    *time.Time
	ClosedDate      *time.Time
}

// FormatTicketNumber renders a sequence value as a ticket number.
func FormatTicketNumber(seq int64) string {
	return fmt.Sprintf("TCK-%06d", seq)
}

// DaysOpen counts whole days from creation to closure, or to now while not closed.
func (t *Ticket) DaysOpen(now time.Time) int {
	end := now
	if t.ClosedDate != nil {
		end = *t.ClosedDate
	}
	if end.Before(t.CreatedAt) {
		return 0
	}
	return int(end.Sub(t.CreatedAt) / (24 * time.Hour))
}

// IsOverdue reports tickets open longer than OverdueAfterDays and not resolved or closed.
func (t *Ticket) IsOverdue(now time.Time) bool {
	return !t.State.Terminal() && t.DaysOpen(now) > OverdueAfterDays
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// HoursOpen measures age in hours up to closure or now.
func (t *Ticket) HoursOpen(now time.Time) float64 {
	end := now
	if t.ClosedDate != nil {
		end = *t.ClosedDate
	}
	if end.Before(t.CreatedAt) {
		return 0
	}
	return end.Sub(t.CreatedAt).Hours()
}
