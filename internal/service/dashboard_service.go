package service

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/support-portal/internal/analytics"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

const recentTicketCount = 5

// Dashboard is the per-role landing view.
type Dashboard struct {
	Role    domain.Role
	Summary analytics.Summary
	Overdue []domain.Ticket
	Recent  []domain.Ticket
}

// DashboardService aggregates the role-scoped ticket set.
type DashboardService struct {
	tickets repository.TicketRepository
	now     func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(tickets repository.TicketRepository) *DashboardService {
	return &DashboardService{tickets: tickets, now: time.Now}
}

// Build computes the dashboard for p.
func (s *DashboardService) Build(ctx context.Context, p domain.Principal) (*Dashboard, error) {
	filter := repository.TicketFilter{Unbounded: true}
	if err := applyScope(&filter, p); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	dash := &Dashboard{
		Role:    p.Role,
		Summary: analytics.Compute(tickets, now),
		Overdue: []domain.Ticket{},
	}
	for _, t := range tickets {
		if t.IsOverdue(now) {
			dash.Overdue = append(dash.Overdue, t)
		}
	}
	sort.SliceStable(dash.Overdue, func(i, j int) bool {
		return dash.Overdue[i].CreatedAt.Before(dash.Overdue[j].CreatedAt)
	})

	recent := append([]domain.Ticket{}, tickets...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > recentTicketCount {
		recent = recent[:recentTicketCount]
	}
	dash.Recent = recent
	return dash, nil
}
