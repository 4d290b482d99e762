package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/observability"
	"github.com/spec-kit/support-portal/internal/repository"
)

const (
	resultSent   = "sent"
	resultFailed = "failed"
)

// Notifier turns ticket events into mail. Delivery is best effort: every
// failure is logged and counted, never returned to the publisher.
type Notifier struct {
	users    repository.UserRepository
	renderer *Renderer
	mailer   Mailer
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewNotifier wires the dispatcher dependencies.
func NewNotifier(users repository.UserRepository, renderer *Renderer, mailer Mailer, metrics *observability.Metrics, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		users:    users,
		renderer: renderer,
		mailer:   mailer,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Register subscribes the notifier to the events it reacts to.
func (n *Notifier) Register(d events.Dispatcher) {
	d.Subscribe(events.EventTicketAssigned, n.onTicketAssigned)
	d.Subscribe(events.EventTicketStatusChanged, n.onStatusChanged)
	d.Subscribe(events.EventUserCreated, n.onUserCreated)
}

func (n *Notifier) onTicketAssigned(ctx context.Context, e events.Event) error {
	payload, ok := e.Payload.(events.TicketAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Type)
	}
	n.Dispatch(ctx, &payload.Ticket, payload.OldState, domain.TicketStateAssigned)
	return nil
}

func (n *Notifier) onStatusChanged(ctx context.Context, e events.Event) error {
	payload, ok := e.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Type)
	}
	n.Dispatch(ctx, &payload.Ticket, payload.OldState, payload.NewState)
	return nil
}

func (n *Notifier) onUserCreated(ctx context.Context, e events.Event) error {
	payload, ok := e.Payload.(events.UserCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Type)
	}
	user, err := n.users.GetByID(ctx, payload.UserID)
	if err != nil {
		n.fail(TemplateWelcome, payload.UserID, "", err)
		return nil
	}
	n.SendWelcome(ctx, user)
	return nil
}

// Dispatch sends every notice Decide yields for the move and returns how
// many were delivered.
func (n *Notifier) Dispatch(ctx context.Context, ticket *domain.Ticket, old, new domain.TicketState) int {
	notices := Decide(old, new)
	if len(notices) == 0 {
		if !new.Valid() {
			n.logger.Warn("no notification policy for state",
				zap.String("ticket_id", ticket.ID),
				zap.String("state", string(new)))
		}
		return 0
	}

	parties := n.loadParties(ctx, ticket)
	sent := 0
	for _, notice := range notices {
		recipient := parties.customer
		if notice.Recipient == RecipientAgent {
			recipient = parties.agent
		}
		if recipient == nil {
			n.fail(notice.Template, ticket.ID, "", fmt.Errorf("%s recipient unavailable", notice.Recipient))
			continue
		}
		data := Data{
			Recipient: recipient,
			Ticket:    ticket,
			Agent:     parties.agent,
			Customer:  parties.customer,
			Now:       n.now(),
		}
		if n.deliver(ctx, notice.Template, ticket.ID, data) {
			sent++
		}
	}
	return sent
}

// SendWelcome mails a newly created account holder.
func (n *Notifier) SendWelcome(ctx context.Context, user *domain.User) bool {
	return n.deliver(ctx, TemplateWelcome, "", Data{Recipient: user, Now: n.now()})
}

// SendOverdueReminder mails the assignee of an overdue ticket.
func (n *Notifier) SendOverdueReminder(ctx context.Context, ticket *domain.Ticket) bool {
	if ticket.AssignedTo == nil {
		return false
	}
	agent, err := n.users.GetByID(ctx, *ticket.AssignedTo)
	if err != nil {
		n.fail(TemplateOverdueReminder, ticket.ID, "", err)
		return false
	}
	return n.deliver(ctx, TemplateOverdueReminder, ticket.ID, Data{
		Recipient: agent,
		Ticket:    ticket,
		Agent:     agent,
		Now:       n.now(),
	})
}

type parties struct {
	agent    *domain.User
	customer *domain.User
}

func (n *Notifier) loadParties(ctx context.Context, ticket *domain.Ticket) parties {
	var p parties
	if user, err := n.users.GetByID(ctx, ticket.CustomerID); err == nil {
		p.customer = user
	} else {
		n.logger.Warn("notification customer lookup failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	if ticket.AssignedTo != nil {
		if user, err := n.users.GetByID(ctx, *ticket.AssignedTo); err == nil {
			p.agent = user
		} else {
			n.logger.Warn("notification agent lookup failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}
	return p
}

func (n *Notifier) deliver(ctx context.Context, template, ticketID string, data Data) bool {
	rendered, err := n.renderer.Render(template, data)
	if err != nil {
		n.fail(template, ticketID, data.Recipient.Email, err)
		return false
	}
	msg := Mail{
		To:      &mail.Address{Name: data.Recipient.Name, Address: data.Recipient.Email},
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		n.fail(template, ticketID, data.Recipient.Email, err)
		return false
	}
	n.metrics.RecordNotification(template, resultSent)
	n.logger.Info("notification sent",
		zap.String("template", template),
		zap.String("ticket_id", ticketID),
		zap.String("to", data.Recipient.Email))
	return true
}

func (n *Notifier) fail(template, ticketID, to string, err error) {
	n.metrics.RecordNotification(template, resultFailed)
	n.logger.Error("notification delivery failed",
		zap.String("template", template),
		zap.String("ticket_id", ticketID),
		zap.String("to", to),
		zap.Error(err))
}
