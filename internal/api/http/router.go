package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/support-portal/internal/api/http/handlers"
	"github.com/spec-kit/support-portal/internal/auth"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/lifecycle"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	AdminUsers     *handlers.AdminUsersHandler
	Tickets        *handlers.TicketsHandler
	Messages       *handlers.MessagesHandler
	Dashboard      *handlers.DashboardHandler
	Projects       *handlers.ProjectsHandler
	Chatbot        *handlers.ChatbotHandler
	AuthMiddleware *auth.AuthMiddleware
	// Gatherer backs GET /metrics; nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Put("/profile", cfg.Users.UpdateProfile)
	protected.Get("/dashboard", cfg.Dashboard.Get)

	tickets := protected.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", auth.RequireRole(domain.RoleCustomer), cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/assign", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.AssignTicket)

	workers := auth.RequireRole(domain.RoleAdmin, domain.RoleAgent)
	tickets.Post("/:id/status", workers, cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/start", workers, cfg.Tickets.Transition(lifecycle.ActionStartProgress))
	tickets.Post("/:id/resolve", workers, cfg.Tickets.Transition(lifecycle.ActionResolve))
	tickets.Post("/:id/close", workers, cfg.Tickets.Transition(lifecycle.ActionClose))
	tickets.Post("/:id/reopen", workers, cfg.Tickets.Transition(lifecycle.ActionReopen))
	tickets.Post("/:id/pending", workers, cfg.Tickets.Transition(lifecycle.ActionPending))
	tickets.Put("/:id/notes", workers, cfg.Tickets.UpdateNotes)
	tickets.Get("/:id/messages", cfg.Messages.ListMessages)
	tickets.Post("/:id/messages", cfg.Messages.PostMessage)

	protected.Put("/messages/:id", cfg.Messages.EditMessage)
	protected.Delete("/messages/:id", cfg.Messages.DeleteMessage)

	projects := protected.Group("/projects")
	projects.Get("/", cfg.Projects.List)
	projects.Get("/:id", cfg.Projects.Get)
	projects.Post("/", auth.RequireRole(domain.RoleAdmin), cfg.Projects.Create)
	projects.Put("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Projects.Update)
	projects.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Projects.Delete)

	admin := protected.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.AdminUsers.List)
	admin.Post("/users", cfg.AdminUsers.Create)
	admin.Get("/users/:id", cfg.AdminUsers.Get)
	admin.Put("/users/:id", cfg.AdminUsers.Update)
	admin.Post("/users/:id/toggle", cfg.AdminUsers.Toggle)
	admin.Post("/users/:id/archive", cfg.AdminUsers.Archive)
	admin.Get("/agents", cfg.AdminUsers.Agents)

	if cfg.Chatbot != nil {
		chat := protected.Group("/chatbot")
		chat.Post("/messages", cfg.Chatbot.Send)
		chat.Delete("/history", cfg.Chatbot.Clear)
	}
}
