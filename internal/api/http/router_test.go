package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/api/http/handlers"
	"github.com/spec-kit/support-portal/internal/auth"
	"github.com/spec-kit/support-portal/internal/config"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/observability"
	"github.com/spec-kit/support-portal/internal/repository/mocks"
	"github.com/spec-kit/support-portal/internal/service"
)

const (
	customerID = "6f1c2a9e-8b1d-4c55-9a53-0d8f5a3b9c11"
	projectID  = "0b4f7c1e-2d3a-4e5f-8a9b-1c2d3e4f5a6b"
)

type testServer struct {
	app      *fiber.App
	tokens   *auth.TokenManager
	users    *mocks.UserRepository
	tickets  *mocks.TicketRepository
	projects *mocks.ProjectRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	dispatcher := events.NewInMemoryDispatcher(logger)

	users := &mocks.UserRepository{}
	tickets := &mocks.TicketRepository{}
	projects := &mocks.ProjectRepository{}
	msgRepo := &mocks.TicketMessageRepository{}
	history := &mocks.TicketHistoryRepository{}

	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "router-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}, users)
	userService := service.NewUserService(users, dispatcher, 4)
	messages := service.NewMessageService(tickets, msgRepo, dispatcher)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  tickets,
		HistoryRepo: history,
		ProjectRepo: projects,
		Messages:    messages,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	assignments := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:  tickets,
		UserRepo:    users,
		HistoryRepo: history,
		Messages:    messages,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("support-portal", "test", nil),
		Users:          handlers.NewUsersHandler(authService, userService),
		AdminUsers:     handlers.NewAdminUsersHandler(userService),
		Tickets:        handlers.NewTicketsHandler(ticketService, assignments),
		Messages:       handlers.NewMessagesHandler(messages),
		Dashboard:      handlers.NewDashboardHandler(service.NewDashboardService(tickets)),
		Projects:       handlers.NewProjectsHandler(service.NewProjectService(projects, tickets)),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users),
		Gatherer:       reg,
	})

	users.On("GetByID", mock.Anything, customerID).Return(&domain.User{
		ID: customerID, Name: "Casey", Email: "casey@example.com",
		Groups: domain.GroupsForRole(domain.RoleCustomer), Active: true,
	}, nil)

	return &testServer{app: app, tokens: authService.TokenManager(), users: users, tickets: tickets, projects: projects}
}

func (s *testServer) do(t *testing.T, method, path, userID, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if userID != "" {
		token, _, err := s.tokens.GenerateToken(userID)
		require.NoError(t, err)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestHealthLive(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, fiber.MethodGet, "/health/live", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, fiber.MethodGet, "/tickets", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestCustomerCannotAssign(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, fiber.MethodPost, "/tickets/"+projectID+"/assign", customerID, `{"agent_id":"`+customerID+`"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))
}

func TestMalformedTicketIDIsNotFound(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, fiber.MethodGet, "/tickets/not-a-uuid", customerID, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestCustomerCreatesTicket(t *testing.T) {
	s := newTestServer(t)
	s.projects.On("GetByID", mock.Anything, projectID).Return(&domain.Project{ID: projectID, Active: true}, nil)
	s.tickets.On("NextNumber", mock.Anything).Return("TCK-000042", nil)
	s.tickets.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Ticket).ID = "ticket-1"
	}).Return(nil)

	status, body := s.do(t, fiber.MethodPost, "/tickets", customerID,
		`{"subject":"Cannot log in","description":"Reset loops","project_id":"`+projectID+`"}`)
	require.Equal(t, fiber.StatusCreated, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "TCK-000042", data["number"])
	assert.Equal(t, "new", data["state"])
	assert.Equal(t, "medium", data["priority"])
}

func TestCreateTicketValidationDetails(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, fiber.MethodPost, "/tickets", customerID, `{"subject":""}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Contains(t, details, "subject")
	assert.Contains(t, details, "project_id")
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, fiber.MethodGet, "/admin/users", customerID, "")
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, fiber.MethodGet, "/health/live", "", "")

	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "portal_http_requests_total")
}
