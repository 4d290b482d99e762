package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/config"
	"github.com/spec-kit/support-portal/internal/service"
)

const sweepTimeout = 5 * time.Minute

// OverdueSweeper runs one overdue reminder pass.
type OverdueSweeper interface {
	Sweep(ctx context.Context) (service.SweepResult, error)
}

// NotificationWorker schedules the overdue reminder sweep.
type NotificationWorker struct {
	cron     *cron.Cron
	sweeper  OverdueSweeper
	schedule string
	logger   *zap.Logger
	rootCtx  context.Context
}

// NewNotificationWorker validates the schedule and timezone and registers the sweep.
func NewNotificationWorker(cfg config.SchedulerConfig, sweeper OverdueSweeper, logger *zap.Logger) (*NotificationWorker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	location := time.UTC
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
		}
		location = loc
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(cfg.OverdueSchedule); err != nil {
		return nil, fmt.Errorf("invalid overdue schedule %q: %w", cfg.OverdueSchedule, err)
	}

	cronLog := cronLogger{logger: logger.Sugar()}
	w := &NotificationWorker{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithParser(parser),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		sweeper:  sweeper,
		schedule: cfg.OverdueSchedule,
		logger:   logger,
		rootCtx:  context.Background(),
	}
	if _, err := w.cron.AddFunc(cfg.OverdueSchedule, w.runScheduled); err != nil {
		return nil, fmt.Errorf("schedule overdue sweep: %w", err)
	}
	return w, nil
}

// Start runs the cron loop until ctx is cancelled or Stop is called.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.rootCtx = ctx
	w.cron.Start()
	w.logger.Info("notification worker started", zap.String("overdue_schedule", w.schedule))
	go func() {
		<-ctx.Done()
		w.Stop()
	}()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (w *NotificationWorker) Stop() {
	<-w.cron.Stop().Done()
}

// Next reports when the sweep fires next; zero before Start.
func (w *NotificationWorker) Next() time.Time {
	entries := w.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce sweeps immediately.
func (w *NotificationWorker) RunOnce(ctx context.Context) (service.SweepResult, error) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()
	result, err := w.sweeper.Sweep(ctx)
	if err != nil {
		w.logger.Error("overdue sweep failed", zap.Error(err))
		return result, err
	}
	return result, nil
}

func (w *NotificationWorker) runScheduled() {
	if w.rootCtx.Err() != nil {
		return
	}
	_, _ = w.RunOnce(w.rootCtx)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
