package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-portal/internal/domain"
)

func sampleTicket(now time.Time) *domain.Ticket {
	return &domain.Ticket{
		ID:        "7d0c",
		Number:    "TCK-000042",
		Subject:   "Printer & scanner offline",
		Priority:  domain.TicketPriorityHigh,
		State:     domain.TicketStateAssigned,
		CreatedAt: now.Add(-5 * time.Hour),
	}
}

func TestRenderAssignedAgent(t *testing.T) {
	now := time.Now()
	r := NewRenderer("http://portal.test/")

	out, err := r.Render(TemplateAssignedAgent, Data{
		Recipient: &domain.User{Name: "Alex"},
		Customer:  &domain.User{Name: "Casey <c>"},
		Ticket:    sampleTicket(now),
		Now:       now,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Ticket Assigned: TCK-000042 - Printer & scanner offline", out.Subject)
	assert.Contains(t, out.HTML, "Hello Alex")
	assert.Contains(t, out.HTML, "Casey &lt;c&gt;")
	assert.Contains(t, out.HTML, "http://portal.test/tickets/7d0c")
	assert.Contains(t, out.HTML, "ago")
}

func TestRenderStatusSubjects(t *testing.T) {
	now := time.Now()
	r := NewRenderer("http://portal.test")
	ticket := sampleTicket(now)

	cases := map[domain.TicketState]string{
		domain.TicketStateInProgress: "Ticket Status Updated: TCK-000042 - In Progress",
		domain.TicketStateResolved:   "Ticket Status Updated: TCK-000042 - Resolved",
		domain.TicketStateClosed:     "Ticket Status Updated: TCK-000042 - Closed",
	}
	for state, subject := range cases {
		ticket.State = state
		out, err := r.Render(StatusTemplate(state), Data{Recipient: &domain.User{Name: "Casey"}, Ticket: ticket, Now: now})
		require.NoError(t, err)
		assert.Equal(t, subject, out.Subject)
	}
}

func TestRenderResolutionNotesFromMarkdown(t *testing.T) {
	now := time.Now()
	ticket := sampleTicket(now)
	ticket.State = domain.TicketStateResolved
	ticket.ResolutionNotes = "Replaced the **fuser**.<script>alert(1)</script>"

	out, err := NewRenderer("http://portal.test").Render(StatusTemplate(domain.TicketStateResolved), Data{
		Recipient: &domain.User{Name: "Casey"},
		Ticket:    ticket,
		Now:       now,
	})
	require.NoError(t, err)
	assert.Contains(t, out.HTML, "<strong>fuser</strong>")
	assert.NotContains(t, out.HTML, "<script>")
}

func TestRenderOverdueReminder(t *testing.T) {
	now := time.Now()
	ticket := sampleTicket(now)
	ticket.CreatedAt = now.Add(-10 * 24 * time.Hour)

	out, err := NewRenderer("http://portal.test").Render(TemplateOverdueReminder, Data{
		Recipient: &domain.User{Name: "Alex"},
		Ticket:    ticket,
		Now:       now,
	})
	require.NoError(t, err)
	assert.Contains(t, out.HTML, "Reminder: This ticket has been open for 10 days.")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := NewRenderer("").Render("nope", Data{})
	assert.Error(t, err)
}
