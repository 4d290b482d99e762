// Package lifecycle holds the ticket state machine and its role guards.
package lifecycle

import (
	"fmt"
	"slices"
	"time"

	"github.com/spec-kit/support-portal/internal/domain"
)

// Action names a lifecycle trigger.
type Action string

const (
	ActionAssign        Action = "assign"
	ActionStartProgress Action = "start_progress"
	ActionResolve       Action = "resolve"
	ActionClose         Action = "close"
	ActionReopen        Action = "reopen"
	ActionPending       Action = "pending"
)

type rule struct {
	from []domain.TicketState
	to   domain.TicketState
}

var rules = map[Action]rule{
	ActionAssign: {
		from: []domain.TicketState{domain.TicketStateNew, domain.TicketStateAssigned, domain.TicketStateInProgress, domain.TicketStatePending},
		to:   domain.TicketStateAssigned,
	},
	ActionStartProgress: {
		from: []domain.TicketState{domain.TicketStateAssigned, domain.TicketStatePending},
		to:   domain.TicketStateInProgress,
	},
	ActionResolve: {
		from: []domain.TicketState{domain.TicketStateAssigned, domain.TicketStateInProgress, domain.TicketStatePending},
		to:   domain.TicketStateResolved,
	},
	ActionClose: {
		from: []domain.TicketState{domain.TicketStateNew, domain.TicketStateAssigned, domain.TicketStateInProgress, domain.TicketStatePending, domain.TicketStateResolved},
		to:   domain.TicketStateClosed,
	},
	ActionReopen: {
		from: []domain.TicketState{domain.TicketStateResolved, domain.TicketStateClosed},
		to:   domain.TicketStateInProgress,
	},
	ActionPending: {
		from: []domain.TicketState{domain.TicketStateNew, domain.TicketStateAssigned, domain.TicketStateInProgress},
		to:   domain.TicketStatePending,
	},
}

// statusActions are the actions a plain status update may resolve to.
var statusActions = []Action{ActionStartProgress, ActionResolve, ActionClose, ActionReopen, ActionPending}

// Target returns the state an action leads to.
func Target(action Action) (domain.TicketState, bool) {
	r, ok := rules[action]
	return r.to, ok
}

// CanApply reports whether action may fire from state.
func CanApply(action Action, from domain.TicketState) bool {
	r, ok := rules[action]
	return ok && slices.Contains(r.from, from)
}

// ValidateAction checks that action may fire from the current state.
func ValidateAction(action Action, from domain.TicketState) error {
	r, ok := rules[action]
	if !ok {
		return fmt.Errorf("unknown action %q", action)
	}
	if !slices.Contains(r.from, from) {
		return fmt.Errorf("cannot %s a ticket in state %s", action, from)
	}
	return nil
}

// ActionFor resolves a status update from -> to into the action it performs.
func ActionFor(from, to domain.TicketState) (Action, error) {
	if !to.Valid() {
		return "", fmt.Errorf("unknown state %q", to)
	}
	if from == to {
		return "", fmt.Errorf("ticket is already %s", from)
	}
	for _, action := range statusActions {
		r := rules[action]
		if r.to == to && slices.Contains(r.from, from) {
			return action, nil
		}
	}
	return "", fmt.Errorf("cannot move from %s to %s", from, to)
}

// Transition validates a status update from -> to.
func Transition(from, to domain.TicketState) error {
	_, err := ActionFor(from, to)
	return err
}

// Apply fires action on ticket, stamping or clearing lifecycle dates.
// The ticket is left untouched when the action is not allowed.
func Apply(ticket *domain.Ticket, action Action, now time.Time) error {
	if err := ValidateAction(action, ticket.State); err != nil {
		return err
	}
	ticket.State = rules[action].to
	switch action {
	case ActionAssign:
		ticket.AssignedDate = &now
	case ActionResolve:
		ticket.ResolvedDate = &now
	case ActionClose:
		ticket.ClosedDate = &now
	case ActionReopen:
		ticket.ResolvedDate = nil
		ticket.ClosedDate = nil
	}
	return nil
}
