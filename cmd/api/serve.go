package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-portal/internal/api/http"
	"github.com/spec-kit/support-portal/internal/api/http/handlers"
	"github.com/spec-kit/support-portal/internal/auth"
	"github.com/spec-kit/support-portal/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the notification scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadBase()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer rt.Close()

	if cfg.Scheduler.Enabled {
		notifications, err := worker.NewNotificationWorker(cfg.Scheduler, rt.overdueSvc, logger)
		if err != nil {
			return err
		}
		notifications.Start(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ErrorHandler:          httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, rt.metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": rt.postgres,
			"redis":    rt.redis,
		}),
		Users:          handlers.NewUsersHandler(rt.auth, rt.userSvc),
		AdminUsers:     handlers.NewAdminUsersHandler(rt.userSvc),
		Tickets:        handlers.NewTicketsHandler(rt.ticketSvc, rt.assignSvc),
		Messages:       handlers.NewMessagesHandler(rt.messageSvc),
		Dashboard:      handlers.NewDashboardHandler(rt.dashSvc),
		Projects:       handlers.NewProjectsHandler(rt.projectSvc),
		Chatbot:        handlers.NewChatbotHandler(rt.chatbotSvc),
		AuthMiddleware: auth.NewAuthMiddleware(rt.auth.TokenManager(), rt.users),
		Gatherer:       rt.registry,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("fiber listen", zap.Error(err))
			return err
		}
	}

	cancel()
	return app.ShutdownWithTimeout(shutdownTimeout)
}
