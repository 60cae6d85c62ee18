package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/uptc/quejas-notifier/internal/broker"
	"github.com/uptc/quejas-notifier/internal/config"
	"github.com/uptc/quejas-notifier/internal/logger"
)

// NewSubscribeCmd returns the "subscribe" subcommand, which registers the
// callback with the broker without starting the server.
func NewSubscribeCmd(cfg *config.AppConfig) *cobra.Command {
	var brokerURL string

	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Register the REPORT_VIEWED callback with the event broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("broker-url") {
				cfg.BrokerURL = brokerURL
			}
			client := broker.NewClient(cfg.Broker(), cliLogger(cfg))

			id, err := client.Subscribe(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "subscribed: %s -> %s\n", id, client.CallbackURL())
			return nil
		},
	}

	cmd.Flags().StringVar(&brokerURL, "broker-url", cfg.BrokerURL, "Event broker base URL (overrides EVENT_BROKER_URL)")
	return cmd
}

// NewBrokerHealthCmd returns the "broker-health" subcommand. It exits non-zero
// when the broker does not answer 2xx.
func NewBrokerHealthCmd(cfg *config.AppConfig) *cobra.Command {
	var brokerURL string

	cmd := &cobra.Command{
		Use:   "broker-health",
		Short: "Check whether the event broker is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("broker-url") {
				cfg.BrokerURL = brokerURL
			}
			client := broker.NewClient(cfg.Broker(), cliLogger(cfg))

			if !client.CheckHealth(cmd.Context()) {
				return fmt.Errorf("broker at %s is unreachable", cfg.BrokerURL)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "broker at %s is UP\n", cfg.BrokerURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&brokerURL, "broker-url", cfg.BrokerURL, "Event broker base URL (overrides EVENT_BROKER_URL)")
	return cmd
}

// cliLogger writes human-readable logs to stderr for one-shot commands.
func cliLogger(cfg *config.AppConfig) *slog.Logger {
	return slog.New(logger.NewHandler(os.Stderr, "text", cfg.SlogLevel()))
}
