package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

const historyPageSize = 100

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	tx         repository.TicketTransactor
	projects   repository.ProjectRepository
	messages   *MessageService
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Tx          repository.TicketTransactor
	ProjectRepo repository.ProjectRepository
	Messages    *MessageService
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject     string
	Description string
	ProjectID   string
	Priority    domain.TicketPriority
}

// TicketListFilter describes listing filters. Role scoping is applied on top.
type TicketListFilter struct {
	States      []domain.TicketState
	Priorities  []domain.TicketPriority
	ProjectID   *string
	AssigneeID  *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketDetail is a ticket with its visible thread and audit trail.
type TicketDetail struct {
	Ticket   *domain.Ticket
	Messages []domain.TicketMessage
	History  []domain.TicketHistory
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		tx:         ticketTransactor(deps.Tx, deps.TicketRepo, deps.HistoryRepo),
		projects:   deps.ProjectRepo,
		messages:   deps.Messages,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Create opens a ticket for the calling customer.
func (s *TicketService) Create(ctx context.Context, p domain.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	if !p.IsCustomer() {
		return nil, apperrors.NewForbidden("only customers can open tickets")
	}

	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	projectID := strings.TrimSpace(input.ProjectID)
	details := map[string]any{}
	if subject == "" {
		details["subject"] = "required"
	}
	if description == "" {
		details["description"] = "required"
	}
	if projectID == "" {
		details["project_id"] = "required"
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		details["priority"] = "must be one of low, medium, high, urgent"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", details)
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("invalid ticket", map[string]any{"project_id": "unknown project"})
		}
		return nil, apperrors.MapError(err)
	}
	if !project.Active {
		return nil, apperrors.NewValidationError("invalid ticket", map[string]any{"project_id": "project is inactive"})
	}

	number, err := s.tickets.NextNumber(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket := &domain.Ticket{
		Number:      number,
		Subject:     subject,
		Description: description,
		Priority:    priority,
		State:       domain.TicketStateNew,
		ProjectID:   &project.ID,
		CustomerID:  p.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordTransition(string(ticket.State))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(p),
		Payload: events.TicketCreatedPayload{
			Number:   ticket.Number,
			Subject:  ticket.Subject,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// List returns tickets visible to p: customers see their own, agents their
// assigned tickets and admins everything.
func (s *TicketService) List(ctx context.Context, p domain.Principal, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		ProjectID:   filter.ProjectID,
		States:      filter.States,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if err := applyScope(&repoFilter, p); err != nil {
		return nil, err
	}
	if p.IsAdmin() {
		repoFilter.AssignedTo = filter.AssigneeID
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func applyScope(filter *repository.TicketFilter, p domain.Principal) error {
	switch p.Role {
	case domain.RoleAdmin:
	case domain.RoleAgent:
		id := p.ID
		filter.AssignedTo = &id
	case domain.RoleCustomer:
		id := p.ID
		filter.CustomerID = &id
	default:
		return apperrors.NewForbidden("no portal access")
	}
	return nil
}

// Get returns the ticket with its visible messages and history.
func (s *TicketService) Get(ctx context.Context, p domain.Principal, ticketID string) (*TicketDetail, error) {
	ticket, err := s.viewable(ctx, p, ticketID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.visible(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	history, err := s.History(ctx, p, ticket)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{Ticket: ticket, Messages: msgs, History: history}, nil
}

// History returns the audit trail; note changes are hidden from customers.
func (s *TicketService) History(ctx context.Context, p domain.Principal, ticket *domain.Ticket) ([]domain.TicketHistory, error) {
	entries, err := s.history.ListByTicket(ctx, ticket.ID, historyPageSize, 0)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !p.IsCustomer() {
		return entries, nil
	}
	visible := make([]domain.TicketHistory, 0, len(entries))
	for _, entry := range entries {
		if entry.ChangeType == domain.ChangeTypeNotes {
			continue
		}
		visible = append(visible, entry)
	}
	return visible, nil
}

// UpdateStatus moves a ticket to newState through whichever lifecycle
// action connects the two states.
func (s *TicketService) UpdateStatus(ctx context.Context, p domain.Principal, ticketID string, newState domain.TicketState, resolutionNotes string) (*domain.Ticket, error) {
	ticket, err := s.workable(ctx, p, ticketID)
	if err != nil {
		return nil, err
	}
	action, err := lifecycle.ActionFor(ticket.State, newState)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{
			"from": ticket.State,
			"to":   newState,
		})
	}
	return s.apply(ctx, p, ticket, action, resolutionNotes)
}

// Transition fires a named lifecycle action. Assignment has its own workflow.
func (s *TicketService) Transition(ctx context.Context, p domain.Principal, ticketID string, action lifecycle.Action, resolutionNotes string) (*domain.Ticket, error) {
	if action == lifecycle.ActionAssign {
		return nil, apperrors.NewValidationError("use the assignment endpoint to assign tickets", nil)
	}
	if _, ok := lifecycle.Target(action); !ok {
		return nil, apperrors.NewValidationError("unknown action", map[string]any{"action": action})
	}
	ticket, err := s.workable(ctx, p, ticketID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, p, ticket, action, resolutionNotes)
}

func (s *TicketService) apply(ctx context.Context, p domain.Principal, ticket *domain.Ticket, action lifecycle.Action, resolutionNotes string) (*domain.Ticket, error) {
	oldState := ticket.State
	if err := lifecycle.Apply(ticket, action, s.now()); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"state": oldState, "action": action})
	}
	if notes := strings.TrimSpace(resolutionNotes); notes != "" {
		ticket.ResolutionNotes = notes
	}
	entry := historyEntry(p.ID, ticket.ID, domain.ChangeTypeStatus,
		map[string]any{"state": oldState},
		map[string]any{"state": ticket.State, "action": action},
	)
	if err := saveTicketChange(ctx, s.tx, ticket, entry); err != nil {
		return nil, err
	}
	s.postSystem(ctx, p, ticket.ID, fmt.Sprintf("Status changed from %s to %s", oldState.Label(), ticket.State.Label()))
	s.metrics.RecordTransition(string(ticket.State))

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(p),
		Payload: events.TicketStatusChangedPayload{
			Ticket:          *ticket,
			OldState:        oldState,
			NewState:        ticket.State,
			ResolutionNotes: ticket.ResolutionNotes,
		},
	})
	return ticket, nil
}

// UpdateNotes replaces the internal notes of a ticket.
func (s *TicketService) UpdateNotes(ctx context.Context, p domain.Principal, ticketID, notes string) (*domain.Ticket, error) {
	ticket, err := s.workable(ctx, p, ticketID)
	if err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)
	if notes == ticket.InternalNotes {
		return ticket, nil
	}
	old := ticket.InternalNotes
	ticket.InternalNotes = notes
	entry := historyEntry(p.ID, ticket.ID, domain.ChangeTypeNotes,
		map[string]any{"internal_notes": old},
		map[string]any{"internal_notes": notes},
	)
	if err := saveTicketChange(ctx, s.tx, ticket, entry); err != nil {
		return nil, err
	}
	return ticket, nil
}

// viewable re-fetches the ticket and checks read access.
func (s *TicketService) viewable(ctx context.Context, p domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanView(p, ticket) {
		return nil, apperrors.NewForbidden("you do not have access to this ticket")
	}
	return ticket, nil
}

// workable re-fetches the ticket and checks lifecycle access.
func (s *TicketService) workable(ctx context.Context, p domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanChangeStatus(p, ticket) {
		return nil, apperrors.NewForbidden("only an admin or the assigned agent can change this ticket")
	}
	return ticket, nil
}

func (s *TicketService) fetch(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

// postSystem writes a thread entry; the change is already committed so a
// failure here is only logged.
func (s *TicketService) postSystem(ctx context.Context, p domain.Principal, ticketID, body string) {
	if s.messages == nil {
		return
	}
	if err := s.messages.PostSystem(ctx, ticketID, p.ID, body); err != nil {
		s.logger.Warn("system message not recorded", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}
