package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/chatbot"
	"github.com/spec-kit/support-portal/internal/config"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/notify"
	"github.com/spec-kit/support-portal/internal/observability"
	"github.com/spec-kit/support-portal/internal/persistence"
	"github.com/spec-kit/support-portal/internal/repository"
	"github.com/spec-kit/support-portal/internal/service"
)

// runtime holds every long-lived component of the process.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	postgres *persistence.Postgres
	redis    *persistence.Redis
	registry *prometheus.Registry
	metrics  *observability.Metrics

	users    repository.UserRepository
	tickets  repository.TicketRepository
	projects repository.ProjectRepository

	auth       *service.AuthService
	userSvc    *service.UserService
	ticketSvc  *service.TicketService
	messageSvc *service.MessageService
	assignSvc  *service.AssignmentService
	dashSvc    *service.DashboardService
	projectSvc *service.ProjectService
	overdueSvc *service.OverdueService
	chatbotSvc *chatbot.Service
	notifier   *notify.Notifier
	dispatcher events.Dispatcher
}

func loadBase() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func newRuntime(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*runtime, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg, migrationsDir, logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	rdb, err := persistence.NewRedis(cfg.Redis, logger)
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	pool := pg.PoolHandle()
	rt := &runtime{
		cfg:        cfg,
		logger:     logger,
		postgres:   pg,
		redis:      rdb,
		registry:   registry,
		metrics:    metrics,
		users:      repository.NewUserRepository(pool),
		tickets:    repository.NewTicketRepository(pool),
		projects:   repository.NewProjectRepository(pool),
		dispatcher: events.NewInMemoryDispatcher(logger),
	}
	history := repository.NewTicketHistoryRepository(pool)
	messages := repository.NewTicketMessageRepository(pool)
	ticketTx := repository.NewTicketTransactor(pg.WithTx)

	rt.notifier = notify.NewNotifier(rt.users, notify.NewRenderer(cfg.Mail.PortalURL), notify.NewMailer(cfg.Mail, logger), metrics, logger)
	rt.notifier.Register(rt.dispatcher)

	rt.auth = service.NewAuthService(cfg.Auth, rt.users)
	rt.userSvc = service.NewUserService(rt.users, rt.dispatcher, cfg.Auth.BcryptCost)
	rt.messageSvc = service.NewMessageService(rt.tickets, messages, rt.dispatcher)
	rt.ticketSvc = service.NewTicketService(service.TicketDependencies{
		TicketRepo:  rt.tickets,
		HistoryRepo: history,
		Tx:          ticketTx,
		ProjectRepo: rt.projects,
		Messages:    rt.messageSvc,
		Dispatcher:  rt.dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	rt.assignSvc = service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:  rt.tickets,
		UserRepo:    rt.users,
		HistoryRepo: history,
		Tx:          ticketTx,
		Messages:    rt.messageSvc,
		Dispatcher:  rt.dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	rt.dashSvc = service.NewDashboardService(rt.tickets)
	rt.projectSvc = service.NewProjectService(rt.projects, rt.tickets)
	rt.overdueSvc = service.NewOverdueService(rt.tickets, rt.notifier, cfg.Scheduler.OverdueAfterDays, metrics, logger)
	chatLimiter := chatbot.NewLimiter(cfg.Chatbot.RequestsPerMinute, cfg.Chatbot.Burst)
	go chatLimiter.Run(ctx, chatbot.DefaultCleanEvery, chatbot.DefaultStaleAfter)
	rt.chatbotSvc = chatbot.NewService(
		chatbot.NewRedisHistoryStore(rdb.Client, cfg.Chatbot.HistoryTTL(), cfg.Chatbot.MaxHistoryMessages),
		chatbot.NewHTTPCompleter(cfg.Chatbot),
		chatLimiter,
		cfg.Chatbot.SystemPrompt,
		logger,
	)
	return rt, nil
}

func (rt *runtime) Close() {
	rt.redis.Close()
	rt.postgres.Close()
	_ = rt.logger.Sync()
}
