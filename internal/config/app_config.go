package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/uptc/quejas-notifier/internal/broker"
	"github.com/uptc/quejas-notifier/internal/logger"
	"github.com/uptc/quejas-notifier/internal/notification"
	"github.com/uptc/quejas-notifier/internal/workerpool"
)

// Supported values for MailProvider.
const (
	MailProviderSMTP = "smtp"
	MailProviderSES  = "ses"
	MailProviderLog  = "log"
)

// AppConfig holds all application-level configuration loaded from environment variables.
// It is built once at startup and handed to the components that need it.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8081.
	Port int `envconfig:"PORT" default:"8081"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// LogFormat is either "json" or "text".
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	// LogFile, when set, sends logs to a rotated file instead of stdout.
	LogFile       string `envconfig:"LOG_FILE"`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"50"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5"`
	LogMaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"30"`

	// BrokerURL is the base URL of the event broker.
	BrokerURL     string        `envconfig:"EVENT_BROKER_URL" default:"http://localhost:8080"`
	BrokerTimeout time.Duration `envconfig:"BROKER_TIMEOUT" default:"10s"`
	// BrokerHealthInterval enables the periodic broker probe when positive.
	BrokerHealthInterval time.Duration `envconfig:"BROKER_HEALTH_INTERVAL" default:"0s"`

	// CallbackBaseURL is the externally reachable base URL of this service.
	CallbackBaseURL string `envconfig:"NOTIFICATION_CALLBACK_URL" default:"http://localhost:8081"`
	ServiceName     string `envconfig:"NOTIFICATION_SERVICE_NAME" default:"notification-service"`

	EmailEnabled  bool     `envconfig:"NOTIFICATION_EMAIL_ENABLED" default:"true"`
	AdminEmails   []string `envconfig:"NOTIFICATION_ADMIN_EMAILS"`
	EmailFrom     string   `envconfig:"NOTIFICATION_EMAIL_FROM"`
	EmailFromName string   `envconfig:"NOTIFICATION_EMAIL_FROM_NAME" default:"Sistema de Quejas Boyacá"`

	// MailProvider selects the transport: smtp, ses or log.
	MailProvider string `envconfig:"MAIL_PROVIDER" default:"smtp"`
	// MailRatePerSec caps outgoing sends per second. Zero disables the limit.
	MailRatePerSec float64 `envconfig:"MAIL_RATE_PER_SEC" default:"0"`

	SMTPHost       string        `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort       int           `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername   string        `envconfig:"SMTP_USERNAME"`
	SMTPPassword   string        `envconfig:"SMTP_PASSWORD"`
	SMTPEncryption string        `envconfig:"SMTP_ENCRYPTION" default:"starttls"`
	SMTPTimeout    time.Duration `envconfig:"SMTP_TIMEOUT" default:"30s"`

	SESConfigurationSet string `envconfig:"SES_CONFIGURATION_SET"`

	EventProcessorCoreSize         int           `envconfig:"EVENT_PROCESSOR_CORE_SIZE" default:"5"`
	EventProcessorMaxSize          int           `envconfig:"EVENT_PROCESSOR_MAX_SIZE" default:"15"`
	EventProcessorQueueCapacity    int           `envconfig:"EVENT_PROCESSOR_QUEUE_CAPACITY" default:"100"`
	EventProcessorNamePrefix       string        `envconfig:"EVENT_PROCESSOR_NAME_PREFIX" default:"event-proc-"`
	EventProcessorAwaitTermination time.Duration `envconfig:"EVENT_PROCESSOR_AWAIT_TERMINATION" default:"60s"`

	EmailSenderCoreSize         int           `envconfig:"EMAIL_SENDER_CORE_SIZE" default:"3"`
	EmailSenderMaxSize          int           `envconfig:"EMAIL_SENDER_MAX_SIZE" default:"10"`
	EmailSenderQueueCapacity    int           `envconfig:"EMAIL_SENDER_QUEUE_CAPACITY" default:"200"`
	EmailSenderNamePrefix       string        `envconfig:"EMAIL_SENDER_NAME_PREFIX" default:"email-sender-"`
	EmailSenderAwaitTermination time.Duration `envconfig:"EMAIL_SENDER_AWAIT_TERMINATION" default:"120s"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// Load reads AppConfig from environment variables using envconfig and validates it.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	c.AdminEmails = cleanList(c.AdminEmails)
	c.CORSAllowedOrigins = cleanList(c.CORSAllowedOrigins)
	c.BrokerURL = strings.TrimRight(c.BrokerURL, "/")
	c.CallbackBaseURL = strings.TrimRight(c.CallbackBaseURL, "/")

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports the first configuration value that cannot be used.
func (c *AppConfig) Validate() error {
	switch c.MailProvider {
	case MailProviderSMTP, MailProviderSES, MailProviderLog:
	default:
		return fmt.Errorf("invalid MAIL_PROVIDER %q: want smtp, ses or log", c.MailProvider)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: want json or text", c.LogFormat)
	}
	// The log provider never builds a real message, so it needs no sender.
	if c.EmailEnabled && c.MailProvider != MailProviderLog && strings.TrimSpace(c.EmailFrom) == "" {
		return fmt.Errorf("NOTIFICATION_EMAIL_FROM is required when email is enabled with MAIL_PROVIDER=%s", c.MailProvider)
	}
	if c.MailRatePerSec < 0 {
		return fmt.Errorf("MAIL_RATE_PER_SEC must not be negative")
	}
	if err := c.EventProcessorPool().Validate(); err != nil {
		return fmt.Errorf("event processor pool: %w", err)
	}
	if err := c.EmailSenderPool().Validate(); err != nil {
		return fmt.Errorf("email sender pool: %w", err)
	}
	return nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger returns the options for the system logger.
func (c *AppConfig) Logger() logger.Options {
	return logger.Options{
		Level:      c.SlogLevel(),
		Format:     c.LogFormat,
		File:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
	}
}

// Broker returns the broker client configuration.
func (c *AppConfig) Broker() broker.Config {
	return broker.Config{
		BrokerURL:       c.BrokerURL,
		CallbackBaseURL: c.CallbackBaseURL,
		SubscriberName:  c.ServiceName,
		Timeout:         c.BrokerTimeout,
	}
}

// EventProcessorPool returns the sizing of the pool that runs one notify per event.
func (c *AppConfig) EventProcessorPool() workerpool.Config {
	return workerpool.Config{
		Name:             c.EventProcessorNamePrefix,
		CoreSize:         c.EventProcessorCoreSize,
		MaxSize:          c.EventProcessorMaxSize,
		QueueCapacity:    c.EventProcessorQueueCapacity,
		AwaitTermination: c.EventProcessorAwaitTermination,
	}
}

// EmailSenderPool returns the sizing of the pool that performs individual sends.
func (c *AppConfig) EmailSenderPool() workerpool.Config {
	return workerpool.Config{
		Name:             c.EmailSenderNamePrefix,
		CoreSize:         c.EmailSenderCoreSize,
		MaxSize:          c.EmailSenderMaxSize,
		QueueCapacity:    c.EmailSenderQueueCapacity,
		AwaitTermination: c.EmailSenderAwaitTermination,
	}
}

// SMTP returns the connection parameters for the SMTP provider.
func (c *AppConfig) SMTP() notification.SMTPConfig {
	return notification.SMTPConfig{
		Host:       c.SMTPHost,
		Port:       c.SMTPPort,
		Username:   c.SMTPUsername,
		Password:   c.SMTPPassword,
		Encryption: c.SMTPEncryption,
		Timeout:    c.SMTPTimeout,
	}
}

// Notification returns the notifier settings. The recipient list is copied.
func (c *AppConfig) Notification() notification.Settings {
	return notification.Settings{
		Enabled:     c.EmailEnabled,
		Recipients:  append([]string(nil), c.AdminEmails...),
		FromAddr:    c.EmailFrom,
		FromName:    c.EmailFromName,
		RatePerSec:  c.MailRatePerSec,
		ServiceName: c.ServiceName,
	}
}

// cleanList trims entries and drops empty ones.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
