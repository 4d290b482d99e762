package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicketDaysOpen(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ticket := &Ticket{CreatedAt: created, State: TicketStateNew}

	assert.Equal(t, 0, ticket.DaysOpen(created))
	assert.Equal(t, 0, ticket.DaysOpen(created.Add(23*time.Hour)))
	assert.Equal(t, 3, ticket.DaysOpen(created.Add(72*time.Hour+time.Minute)))

	closed := created.Add(48 * time.Hour)
	ticket.ClosedDate = &closed
	assert.Equal(t, 2, ticket.DaysOpen(created.Add(30*24*time.Hour)))
}

func TestTicketIsOverdue(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	now := created.Add(8 * 24 * time.Hour)

	tests := []struct {
		state TicketState
		now   time.Time
		want  bool
	}{
		{TicketStateNew, now, true},
		{TicketStatePending, now, true},
		{TicketStateInProgress, created.Add(7 * 24 * time.Hour), false},
		{TicketStateResolved, now, false},
		{TicketStateClosed, now, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			ticket := &Ticket{CreatedAt: created, State: tt.state}
			assert.Equal(t, tt.want, ticket.IsOverdue(tt.now))
		})
	}
}

func TestTicketIsAssignedTo(t *testing.T) {
	ticket := &Ticket{}
	assert.False(t, ticket.IsAssignedTo("agent-1"))

	agent := "agent-1"
	ticket.AssignedTo = &agent
	assert.True(t, ticket.IsAssignedTo("agent-1"))
	assert.False(t, ticket.IsAssignedTo("agent-2"))
}

func TestFormatTicketNumber(t *testing.T) {
	assert.Equal(t, "TCK-000042", FormatTicketNumber(42))
	assert.Equal(t, "TCK-1234567", FormatTicketNumber(1234567))
}

func TestTicketStateLabels(t *testing.T) {
	assert.Equal(t, "In Progress", TicketStateInProgress.Label())
	assert.True(t, TicketStateClosed.Terminal())
	assert.False(t, TicketStatePending.Terminal())
	assert.False(t, TicketState("archived").Valid())
	assert.True(t, TicketPriorityUrgent.Valid())
}
