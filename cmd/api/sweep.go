package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/support-portal/internal/worker"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep-overdue",
	Short: "Send overdue ticket reminders once and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadBase()
		if err != nil {
			return err
		}
		rt, err := newRuntime(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		notifications, err := worker.NewNotificationWorker(cfg.Scheduler, rt.overdueSvc, logger)
		if err != nil {
			return err
		}
		result, err := notifications.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "overdue=%d reminded=%d\n", result.Overdue, result.Reminded)
		return nil
	},
}
