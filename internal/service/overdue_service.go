package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/analytics"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/observability"
	"github.com/spec-kit/support-portal/internal/repository"
)

// ReminderSender mails the assignee of an overdue ticket.
type ReminderSender interface {
	SendOverdueReminder(ctx context.Context, ticket *domain.Ticket) bool
}

// SweepResult summarizes one overdue sweep.
type SweepResult struct {
	Overdue  int
	Reminded int
}

// OverdueService finds tickets open past the threshold and reminds their agents.
type OverdueService struct {
	tickets   repository.TicketRepository
	reminders ReminderSender
	afterDays int
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewOverdueService constructs the sweep. afterDays <= 0 uses domain.OverdueAfterDays.
func NewOverdueService(tickets repository.TicketRepository, reminders ReminderSender, afterDays int, metrics *observability.Metrics, logger *zap.Logger) *OverdueService {
	if afterDays <= 0 {
		afterDays = domain.OverdueAfterDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueService{
		tickets:   tickets,
		reminders: reminders,
		afterDays: afterDays,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Sweep runs one pass. Unassigned overdue tickets are counted but nobody is mailed.
func (s *OverdueService) Sweep(ctx context.Context) (SweepResult, error) {
	open := make([]domain.TicketState, 0, len(domain.TicketStates))
	for _, state := range domain.TicketStates {
		if analytics.IsOpen(state) {
			open = append(open, state)
		}
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{States: open, Unbounded: true})
	if err != nil {
		return SweepResult{}, err
	}

	now := s.now()
	var result SweepResult
	for i := range tickets {
		ticket := &tickets[i]
		if ticket.DaysOpen(now) <= s.afterDays {
			continue
		}
		result.Overdue++
		if ticket.AssignedTo == nil {
			continue
		}
		if s.reminders.SendOverdueReminder(ctx, ticket) {
			result.Reminded++
		}
	}
	s.metrics.SetOverdue(result.Overdue)
	s.logger.Info("overdue sweep finished",
		zap.Int("overdue", result.Overdue),
		zap.Int("reminded", result.Reminded))
	return result, nil
}
