package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/lifecycle"
	"github.com/spec-kit/support-portal/internal/observability"
	"github.com/spec-kit/support-portal/internal/repository"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// AssignmentService binds tickets to the agents working them.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	tx         repository.TicketTransactor
	messages   *MessageService
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	HistoryRepo repository.TicketHistoryRepository
	Tx          repository.TicketTransactor
	Messages    *MessageService
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		tx:         ticketTransactor(deps.Tx, deps.TicketRepo, deps.HistoryRepo),
		messages:   deps.Messages,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Assign hands ticketID to agentID. Only admins may assign; the target must
// be an active agent or admin. Closed tickets cannot be assigned and
// resolved tickets must be reopened first.
func (s *AssignmentService) Assign(ctx context.Context, p domain.Principal, ticketID, agentID string) (*domain.Ticket, error) {
	if !lifecycle.CanAssign(p) {
		return nil, apperrors.NewForbidden("only admins can assign tickets")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("agent not found", map[string]any{"agent_id": agentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !agent.CanWorkTickets() {
		return nil, apperrors.NewValidationError("assignee must be an active agent", map[string]any{"agent_id": agentID})
	}

	oldState := ticket.State
	previous := ticket.AssignedTo
	if err := lifecycle.Apply(ticket, lifecycle.ActionAssign, s.now()); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"state": oldState})
	}
	assignerID := p.ID
	ticket.AssignedTo = &agent.ID
	ticket.AssignedBy = &assignerID

	oldValue := map[string]any{"assigned_to": nil}
	if previous != nil {
		oldValue["assigned_to"] = *previous
	}
	entry := historyEntry(p.ID, ticket.ID, domain.ChangeTypeAssignee, oldValue, map[string]any{"assigned_to": agent.ID})
	if err := saveTicketChange(ctx, s.tx, ticket, entry); err != nil {
		return nil, err
	}
	if s.messages != nil {
		body := fmt.Sprintf("Ticket assigned to %s", agent.Name)
		if err := s.messages.PostSystem(ctx, ticket.ID, p.ID, body); err != nil {
			s.logger.Warn("system message not recorded", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}
	s.metrics.RecordTransition(string(ticket.State))

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(p),
		Payload: events.TicketAssignedPayload{
			Ticket:             *ticket,
			OldState:           oldState,
			AssigneeID:         agent.ID,
			PreviousAssigneeID: previous,
		},
	})
	return ticket, nil
}
