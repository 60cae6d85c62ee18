package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/uptc/quejas-notifier/internal/api"
	"github.com/uptc/quejas-notifier/internal/broker"
	"github.com/uptc/quejas-notifier/internal/build"
	"github.com/uptc/quejas-notifier/internal/config"
	"github.com/uptc/quejas-notifier/internal/logger"
	"github.com/uptc/quejas-notifier/internal/metrics"
	"github.com/uptc/quejas-notifier/internal/notification"
	"github.com/uptc/quejas-notifier/internal/server"
	"github.com/uptc/quejas-notifier/internal/workerpool"
)

// NewServeCmd returns the "serve" subcommand that runs the notifier.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int
	var noSubscribe bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the notification service",
		Long: `Start the HTTP server that receives REPORT_VIEWED callbacks from the event
broker and emails the configured administrators.

On startup the service registers itself with the broker once. A failed
registration is logged and does not stop the service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			printBanner(cmd.ErrOrStderr(), cfg)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, cfg, !noSubscribe)
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	cmd.Flags().BoolVar(&noSubscribe, "no-subscribe", false, "Do not register with the event broker on startup")

	return cmd
}

// runServe blocks until ctx is canceled or the server fails.
func runServe(ctx context.Context, cfg *config.AppConfig, subscribe bool) error {
	sysLogger, logCloser, err := logger.New(cfg.Logger())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logCloser.Close() }()

	sysLogger.Info("quejas-notifier starting",
		slog.Int("port", cfg.Port),
		slog.String("broker_url", cfg.BrokerURL),
		slog.String("mail_provider", cfg.MailProvider),
		slog.Bool("email_enabled", cfg.EmailEnabled),
		slog.Int("admin_recipients", len(cfg.AdminEmails)),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)

	m := metrics.New()

	events, err := workerpool.New(cfg.EventProcessorPool(), sysLogger)
	if err != nil {
		return fmt.Errorf("creating event processor pool: %w", err)
	}
	sends, err := workerpool.New(cfg.EmailSenderPool(), sysLogger)
	if err != nil {
		_ = events.Shutdown(context.Background())
		return fmt.Errorf("creating email sender pool: %w", err)
	}
	m.RegisterPool(events.Name(), events.Queued, events.Workers)
	m.RegisterPool(sends.Name(), sends.Queued, sends.Workers)

	// The HTTP server stops first, then each pool drains in dependency order:
	// event processors feed the sender pool, so they must finish before it.
	defer shutdownPools(sysLogger, events, sends)

	provider, err := newProvider(ctx, cfg, sysLogger)
	if err != nil {
		return err
	}
	notifier := notification.NewNotifier(cfg.Notification(), provider, events, sends, m, sysLogger)

	brokerClient := broker.NewClient(cfg.Broker(), sysLogger)
	if cfg.BrokerHealthInterval > 0 {
		monitor, err := broker.NewMonitor(brokerClient, cfg.BrokerHealthInterval, m, sysLogger)
		if err != nil {
			return err
		}
		if err := monitor.Start(); err != nil {
			return err
		}
		defer func() { _ = monitor.Stop() }()
	}

	apiSrv := api.New(notifier, cfg.ServiceName, m, sysLogger)
	srv := server.New(apiSrv, server.Options{
		Port:           cfg.Port,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        m,
	}, sysLogger)

	if subscribe {
		// Fire once; Subscribe logs its own outcome.
		go func() { _, _ = brokerClient.Subscribe(ctx) }()
	}

	sysLogger.Info("server ready", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))
	return srv.Run(ctx)
}

func newProvider(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (notification.Provider, error) {
	switch cfg.MailProvider {
	case config.MailProviderSES:
		p, err := notification.NewSESProviderFromEnv(ctx, cfg.SESConfigurationSet)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.MailProviderLog:
		return notification.NewLogProvider(log), nil
	default:
		return notification.NewSMTPProvider(cfg.SMTP()), nil
	}
}

func shutdownPools(log *slog.Logger, pools ...*workerpool.Pool) {
	var errs []error
	for _, p := range pools {
		if err := p.Shutdown(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn("worker pools did not stop cleanly", "error", err)
	}
}
