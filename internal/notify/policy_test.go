package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/support-portal/internal/domain"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		old  domain.TicketState
		new  domain.TicketState
		want []Notice
	}{
		{domain.TicketStateNew, domain.TicketStateNew, nil},
		{domain.TicketStateAssigned, domain.TicketStatePending, nil},
		{domain.TicketStateNew, domain.TicketStateAssigned, []Notice{
			{Recipient: RecipientAgent, Template: "ticket_assigned_agent"},
			{Recipient: RecipientCustomer, Template: "ticket_assigned_customer"},
		}},
		{domain.TicketStateAssigned, domain.TicketStateInProgress, []Notice{
			{Recipient: RecipientCustomer, Template: "ticket_status_in_progress"},
		}},
		{domain.TicketStateInProgress, domain.TicketStateResolved, []Notice{
			{Recipient: RecipientCustomer, Template: "ticket_status_resolved"},
		}},
		{domain.TicketStateResolved, domain.TicketStateClosed, []Notice{
			{Recipient: RecipientCustomer, Template: "ticket_status_closed"},
		}},
		{domain.TicketStateNew, domain.TicketState("archived"), nil},
	}

	for _, tc := range cases {
		t.Run(string(tc.old)+"->"+string(tc.new), func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.old, tc.new))
		})
	}
}

func TestEveryDecidedTemplateIsRenderable(t *testing.T) {
	r := NewRenderer("http://portal.test")
	for _, state := range domain.TicketStates {
		for _, n := range Decide(domain.TicketStateNew, state) {
			assert.True(t, r.Has(n.Template), n.Template)
		}
	}
}
