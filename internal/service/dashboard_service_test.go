package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
	"github.com/spec-kit/support-portal/internal/repository/mocks"
)

func TestDashboardForAgent(t *testing.T) {
	tickets := &mocks.TicketRepository{}
	svc := NewDashboardService(tickets)
	svc.now = func() time.Time { return fixedNow }

	old := newTicket(domain.TicketStateInProgress, strPtr(agent.ID))
	old.ID = "t-old"
	old.CreatedAt = fixedNow.Add(-10 * 24 * time.Hour)
	fresh := newTicket(domain.TicketStateAssigned, strPtr(agent.ID))
	fresh.ID = "t-fresh"
	fresh.CreatedAt = fixedNow.Add(-time.Hour)

	tickets.On("ListWithFilter", mock.Anything, mock.MatchedBy(func(f repository.TicketFilter) bool {
		return f.Unbounded && f.AssignedTo != nil && *f.AssignedTo == agent.ID
	})).Return([]domain.Ticket{*old, *fresh}, nil)

	dash, err := svc.Build(context.Background(), agent)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, dash.Role)
	assert.Equal(t, 2, dash.Summary.Total)
	assert.Equal(t, 1, dash.Summary.Overdue)
	require.Len(t, dash.Overdue, 1)
	assert.Equal(t, "t-old", dash.Overdue[0].ID)
	require.Len(t, dash.Recent, 2)
	assert.Equal(t, "t-fresh", dash.Recent[0].ID)
}

func TestDashboardEmpty(t *testing.T) {
	tickets := &mocks.TicketRepository{}
	tickets.On("ListWithFilter", mock.Anything, mock.Anything).Return([]domain.Ticket{}, nil)

	dash, err := NewDashboardService(tickets).Build(context.Background(), customer)
	require.NoError(t, err)
	assert.Zero(t, dash.Summary.Total)
	assert.Zero(t, dash.Summary.SolveRate)
	assert.Empty(t, dash.Overdue)
	assert.Empty(t, dash.Recent)
}
