package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uptc/quejas-notifier/internal/config"
)

// NewRootCmd assembles the command tree around a loaded configuration.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	root := &cobra.Command{
		Use:   "quejas-notifier",
		Short: "Report-viewed email notifier for the complaints system",
		Long: `quejas-notifier subscribes to the event broker for REPORT_VIEWED events
and emails every configured administrator when a report is viewed.

Configuration is read from environment variables; see "serve --help".`,
		SilenceUsage: true,
	}

	root.AddCommand(NewServeCmd(cfg))
	root.AddCommand(NewSubscribeCmd(cfg))
	root.AddCommand(NewBrokerHealthCmd(cfg))
	root.AddCommand(NewVersionCmd())
	return root
}

// Execute loads configuration and runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := NewRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
