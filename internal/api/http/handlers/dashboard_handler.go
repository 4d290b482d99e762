package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/service"
)

// DashboardHandler serves the role-scoped landing view.
type DashboardHandler struct {
	dashboards *service.DashboardService
	now        func() time.Time
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboardService, now: time.Now}
}

// Get GET /dashboard.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	dash, err := h.dashboards.Build(c.UserContext(), p)
	if err != nil {
		return err
	}
	now := h.now()
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		Role:    dash.Role,
		Summary: dash.Summary,
		Overdue: ticketSummaries(dash.Overdue, now),
		Recent:  ticketSummaries(dash.Recent, now),
	}})
}
