package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xeonx/timeago"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/lifecycle"
	"github.com/spec-kit/support-portal/internal/service"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints for every role.
type TicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
	now         func() time.Time
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, assignmentService *service.AssignmentService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, assignments: assignmentService, now: time.Now}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.ProjectID != "" {
		if _, err := uuid.Parse(req.ProjectID); err != nil {
			return apperrors.NewValidationError("invalid ticket", map[string]any{"project_id": "unknown project"})
		}
	}
	ticket, err := h.tickets.Create(c.UserContext(), p, service.TicketCreateInput{
		Subject:     req.Subject,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.summary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter := parseTicketQuery(c)
	tickets, err := h.tickets.List(c.UserContext(), p, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.summaries(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	detail, err := h.tickets.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.detail(p, detail)})
}

// AssignTicket POST /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if _, err := uuid.Parse(req.AgentID); err != nil {
		return apperrors.NewValidationError("invalid assignee", map[string]any{"agent_id": "must be a user id"})
	}
	ticket, err := h.assignments.Assign(c.UserContext(), p, id, req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.summary(ticket)})
}

// UpdateStatus POST /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), p, id, req.State, req.ResolutionNotes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.summary(ticket)})
}

// Transition returns the handler for a named transition such as POST /tickets/:id/resolve.
func (h *TicketsHandler) Transition(action lifecycle.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "ticket")
		if err != nil {
			return err
		}
		var req dto.TransitionRequest
		if len(c.Body()) > 0 {
			if err := parseBody(c, &req); err != nil {
				return err
			}
		}
		ticket, err := h.tickets.Transition(c.UserContext(), p, id, action, req.ResolutionNotes)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": h.summary(ticket)})
	}
}

// UpdateNotes PUT /tickets/:id/notes.
func (h *TicketsHandler) UpdateNotes(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	var req dto.NotesRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateNotes(c.UserContext(), p, id, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.summary(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	for _, part := range parseList(c.Query("state")) {
		filter.States = append(filter.States, domain.TicketState(part))
	}
	for _, part := range parseList(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(part))
	}
	if projectID := strings.TrimSpace(c.Query("project_id")); projectID != "" {
		filter.ProjectID = &projectID
	}
	if assignee := strings.TrimSpace(c.Query("assignee_id")); assignee != "" {
		filter.AssigneeID = &assignee
	}
	filter.SearchTerm = optionalString(c.Query("q"))
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	filter.Limit, filter.Offset = paging(c)
	return filter
}

func (h *TicketsHandler) summary(ticket *domain.Ticket) dto.TicketSummary {
	return ticketSummary(ticket, h.now())
}

func (h *TicketsHandler) summaries(tickets []domain.Ticket) []dto.TicketSummary {
	return ticketSummaries(tickets, h.now())
}

func (h *TicketsHandler) detail(p domain.Principal, detail *service.TicketDetail) dto.TicketDetailResponse {
	ticket := detail.Ticket
	resp := dto.TicketDetailResponse{
		TicketSummary:   h.summary(ticket),
		Description:     ticket.Description,
		ResolutionNotes: ticket.ResolutionNotes,
		AssignedBy:      ticket.AssignedBy,
		AssignedDate:    ticket.AssignedDate,
		ResolvedDate:    ticket.ResolvedDate,
		ClosedDate:      ticket.ClosedDate,
		Messages:        messageResponses(detail.Messages),
		History:         historyResponses(detail.History),
	}
	if !p.IsCustomer() {
		resp.InternalNotes = ticket.InternalNotes
	}
	return resp
}

func ticketSummary(ticket *domain.Ticket, now time.Time) dto.TicketSummary {
	return dto.TicketSummary{
		ID:         ticket.ID,
		Number:     ticket.Number,
		Subject:    ticket.Subject,
		State:      ticket.State,
		StateLabel: ticket.State.Label(),
		Priority:   ticket.Priority,
		ProjectID:  ticket.ProjectID,
		CustomerID: ticket.CustomerID,
		AssignedTo: ticket.AssignedTo,
		DaysOpen:   ticket.DaysOpen(now),
		Overdue:    ticket.IsOverdue(now),
		OpenedAgo:  timeago.English.FormatReference(ticket.CreatedAt, now),
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}

func ticketSummaries(tickets []domain.Ticket, now time.Time) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i], now))
	}
	return items
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:          entry.ID,
			ChangeType:  entry.ChangeType,
			ChangedByID: entry.ChangedByID,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return resp
}
