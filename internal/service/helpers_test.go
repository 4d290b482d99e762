package service

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

var (
	admin    = domain.Principal{ID: "admin-1", Name: "Ada", Role: domain.RoleAdmin, Active: true}
	agent    = domain.Principal{ID: "agent-1", Name: "Alex", Role: domain.RoleAgent, Active: true}
	other    = domain.Principal{ID: "agent-2", Name: "Ari", Role: domain.RoleAgent, Active: true}
	customer = domain.Principal{ID: "cust-1", Name: "Casey", Role: domain.RoleCustomer, Active: true}
	stranger = domain.Principal{ID: "cust-2", Name: "Sam", Role: domain.RoleCustomer, Active: true}
)

func strPtr(s string) *string { return &s }

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Subscribe(events.EventType, events.EventHandler) {}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newTicket(state domain.TicketState, assignedTo *string) *domain.Ticket {
	return &domain.Ticket{
		ID:          "t-1",
		Number:      "TCK-000001",
		Subject:     "Cannot log in",
		Description: "Password reset loops",
		Priority:    domain.TicketPriorityMedium,
		State:       state,
		CustomerID:  customer.ID,
		AssignedTo:  assignedTo,
		CreatedAt:   fixedNow.Add(-48 * time.Hour),
	}
}
