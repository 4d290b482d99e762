package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-portal/internal/domain"
)

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil, time.Now())

	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.SolveRate)
	assert.Equal(t, 0.0, s.WeeklyCloseRate)
	assert.Equal(t, 0.0, s.AvgOpenHours)
	assert.Equal(t, 0.0, s.AvgUrgentOpenHours)
	assert.Len(t, s.ByState, len(domain.TicketStates))
	assert.Len(t, s.OpenByPriority, len(domain.TicketPriorities))
	for _, count := range s.ByState {
		assert.Zero(t, count)
	}
}

func TestCompute(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	hoursAgo := func(h int) time.Time { return now.Add(-time.Duration(h) * time.Hour) }
	resolvedToday := now.Add(-2 * time.Hour)
	closedYesterday := now.Add(-26 * time.Hour)

	tickets := []domain.Ticket{
		{State: domain.TicketStateNew, Priority: domain.TicketPriorityHigh, CreatedAt: hoursAgo(10)},
		{State: domain.TicketStateInProgress, Priority: domain.TicketPriorityUrgent, CreatedAt: hoursAgo(20)},
		{State: domain.TicketStatePending, Priority: domain.TicketPriorityHigh, CreatedAt: hoursAgo(30)},
		{State: domain.TicketStateResolved, Priority: domain.TicketPriorityMedium, CreatedAt: hoursAgo(48), ResolvedDate: &resolvedToday},
		{State: domain.TicketStateClosed, Priority: domain.TicketPriorityUrgent, CreatedAt: hoursAgo(24 * 10), ClosedDate: &closedYesterday},
	}

	s := Compute(tickets, now)

	require.Equal(t, 5, s.Total)
	assert.Equal(t, 1, s.ByState[domain.TicketStateNew])
	assert.Equal(t, 0, s.ByState[domain.TicketStateAssigned])
	assert.Equal(t, 3, s.Open)
	assert.Equal(t, 2, s.OpenByPriority[domain.TicketPriorityHigh])
	assert.Equal(t, 1, s.OpenByPriority[domain.TicketPriorityUrgent])
	assert.Equal(t, 0, s.OpenByPriority[domain.TicketPriorityLow])

	assert.Equal(t, 20.0, s.AvgOpenHours)
	assert.Equal(t, 20.0, s.AvgHighOpenHours)
	assert.Equal(t, 20.0, s.AvgUrgentOpenHours)
	// closed ticket stops counting at closure: 240h - 26h
	assert.Equal(t, 10.0+20+30+48+214, s.TotalHours)

	assert.Equal(t, 2, s.ResolvedOrClosed)
	assert.Equal(t, 1, s.UrgentResolved)
	assert.Equal(t, 40.0, s.SolveRate)
	assert.Equal(t, 1, s.TodayClosed)
	// four tickets created within the week, one of them resolved
	assert.Equal(t, 25.0, s.WeeklyCloseRate)
	assert.Equal(t, 0, s.Overdue)
}

func TestComputeOverdue(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	old := now.Add(-9 * 24 * time.Hour)
	tickets := []domain.Ticket{
		{State: domain.TicketStateAssigned, Priority: domain.TicketPriorityLow, CreatedAt: old},
		{State: domain.TicketStateResolved, Priority: domain.TicketPriorityLow, CreatedAt: old},
	}

	s := Compute(tickets, now)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 50.0, s.SolveRate)
	assert.Equal(t, 0.0, s.WeeklyCloseRate)
}

func TestSolveRateRounding(t *testing.T) {
	now := time.Now()
	tickets := []domain.Ticket{
		{State: domain.TicketStateClosed, CreatedAt: now},
		{State: domain.TicketStateNew, CreatedAt: now},
		{State: domain.TicketStateNew, CreatedAt: now},
	}
	assert.Equal(t, 33.33, Compute(tickets, now).SolveRate)
}
