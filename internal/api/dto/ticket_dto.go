package dto

import (
	"time"

	"github.com/spec-kit/support-portal/internal/analytics"
	"github.com/spec-kit/support-portal/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	ProjectID   string                `json:"project_id"`
	Priority    domain.TicketPriority `json:"priority"`
}

// AssignRequest payload.
type AssignRequest struct {
	AgentID string `json:"agent_id"`
}

// StatusRequest payload for the generic status update.
type StatusRequest struct {
	State           domain.TicketState `json:"state"`
	ResolutionNotes string             `json:"resolution_notes"`
}

// TransitionRequest payload for named transitions.
type TransitionRequest struct {
	ResolutionNotes string `json:"resolution_notes"`
}

// NotesRequest payload.
type NotesRequest struct {
	Notes string `json:"notes"`
}

// MessageRequest payload.
type MessageRequest struct {
	Body string `json:"body"`
}

// TicketSummary response.
type TicketSummary struct {
	ID         string                `json:"id"`
	Number     string                `json:"number"`
	Subject    string                `json:"subject"`
	State      domain.TicketState    `json:"state"`
	StateLabel string                `json:"state_label"`
	Priority   domain.TicketPriority `json:"priority"`
	ProjectID  *string               `json:"project_id"`
	CustomerID string                `json:"customer_id"`
	AssignedTo *string               `json:"assigned_to"`
	DaysOpen   int                   `json:"days_open"`
	Overdue    bool                  `json:"overdue"`
	OpenedAgo  string                `json:"opened_ago"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description     string                  `json:"description"`
	InternalNotes   string                  `json:"internal_notes,omitempty"`
	ResolutionNotes string                  `json:"resolution_notes,omitempty"`
	AssignedBy      *string                 `json:"assigned_by"`
	AssignedDate    *time.Time              `json:"assigned_date"`
	ResolvedDate    *time.Time              `json:"resolved_date"`
	ClosedDate      *time.Time              `json:"closed_date"`
	Messages        []TicketMessageResponse `json:"messages"`
	History         []TicketHistoryResponse `json:"history"`
}

// TicketMessageResponse represents a thread entry.
type TicketMessageResponse struct {
	ID         string             `json:"id"`
	TicketID   string             `json:"ticket_id"`
	Type       domain.MessageType `json:"type"`
	AuthorID   *string            `json:"author_id"`
	AuthorName string             `json:"author_name,omitempty"`
	Body       string             `json:"body"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// TicketHistoryResponse describes an audit entry.
type TicketHistoryResponse struct {
	ID          string                  `json:"id"`
	ChangeType  domain.TicketChangeType `json:"change_type"`
	ChangedByID *string                 `json:"changed_by_id"`
	OldValue    map[string]any          `json:"old_value"`
	NewValue    map[string]any          `json:"new_value"`
	CreatedAt   time.Time               `json:"created_at"`
}

// DashboardResponse is the role-scoped landing view.
type DashboardResponse struct {
	Role    domain.Role       `json:"role"`
	Summary analytics.Summary `json:"summary"`
	Overdue []TicketSummary   `json:"overdue"`
	Recent  []TicketSummary   `json:"recent"`
}
