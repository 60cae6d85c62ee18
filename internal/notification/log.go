package notification

import (
	"context"
	"log/slog"
)

// LogProvider logs emails instead of sending them.
// Useful for development and testing.
type LogProvider struct {
	logger *slog.Logger
}

// NewLogProvider creates a new log-based provider.
func NewLogProvider(logger *slog.Logger) *LogProvider {
	return &LogProvider{logger: logger}
}

// Name returns the provider identifier.
func (p *LogProvider) Name() string { return "log" }

// Send logs the email details.
func (p *LogProvider) Send(_ context.Context, msg Message) error {
	p.logger.Info("email (dev mode - not actually sent)",
		"to", msg.To,
		"from", msg.FromAddr,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}
