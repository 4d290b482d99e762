package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var migrationsDir string

var rootCmd = &cobra.Command{
	Use:           "support-portal",
	Short:         "Customer support ticketing portal",
	Long:          `Support portal API server with ticket lifecycle, notifications, dashboards and chatbot proxy.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "migrations", "", "directory holding SQL migrations")
	rootCmd.AddCommand(serveCmd, migrateCmd, sweepCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
