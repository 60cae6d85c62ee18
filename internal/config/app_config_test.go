package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &AppConfig{LogLevel: tt.logLevel}
			assert.Equal(t, tt.want, c.SlogLevel())
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NOTIFICATION_ADMIN_EMAILS", "")
	t.Setenv("NOTIFICATION_EMAIL_FROM", "noreply@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BrokerURL)
	assert.Equal(t, "notification-service", cfg.ServiceName)
	assert.True(t, cfg.EmailEnabled)
	assert.Empty(t, cfg.AdminEmails)
	assert.Equal(t, "Sistema de Quejas Boyacá", cfg.EmailFromName)
	assert.Equal(t, MailProviderSMTP, cfg.MailProvider)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)

	ep := cfg.EventProcessorPool()
	assert.Equal(t, 5, ep.CoreSize)
	assert.Equal(t, 15, ep.MaxSize)
	assert.Equal(t, 100, ep.QueueCapacity)
	assert.Equal(t, "event-proc-", ep.Name)
	assert.Equal(t, 60*time.Second, ep.AwaitTermination)

	es := cfg.EmailSenderPool()
	assert.Equal(t, 3, es.CoreSize)
	assert.Equal(t, 10, es.MaxSize)
	assert.Equal(t, 200, es.QueueCapacity)
	assert.Equal(t, "email-sender-", es.Name)
	assert.Equal(t, 120*time.Second, es.AwaitTermination)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("EVENT_BROKER_URL", "http://broker:8080/")
	t.Setenv("NOTIFICATION_CALLBACK_URL", "http://notifier:9090/")
	t.Setenv("NOTIFICATION_EMAIL_ENABLED", "false")
	t.Setenv("NOTIFICATION_ADMIN_EMAILS", "a@example.com, b@example.com,,")
	t.Setenv("MAIL_PROVIDER", "log")
	t.Setenv("EMAIL_SENDER_MAX_SIZE", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "http://broker:8080", cfg.BrokerURL)
	assert.Equal(t, "http://notifier:9090", cfg.CallbackBaseURL)
	assert.False(t, cfg.EmailEnabled)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AdminEmails)
	assert.Equal(t, 4, cfg.EmailSenderPool().MaxSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown provider", "MAIL_PROVIDER", "carrier-pigeon"},
		{"unknown log format", "LOG_FORMAT", "xml"},
		{"max below core", "EVENT_PROCESSOR_MAX_SIZE", "2"},
		{"zero core", "EMAIL_SENDER_CORE_SIZE", "0"},
		{"negative rate", "MAIL_RATE_PER_SEC", "-1"},
		{"bad port", "PORT", "not-a-number"},
		{"missing from address", "NOTIFICATION_EMAIL_FROM", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NOTIFICATION_EMAIL_FROM", "noreply@example.com")
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestAppConfig_Notification(t *testing.T) {
	c := &AppConfig{
		EmailEnabled:   true,
		AdminEmails:    []string{"a@example.com"},
		EmailFrom:      "noreply@example.com",
		EmailFromName:  "Quejas",
		MailRatePerSec: 2,
		ServiceName:    "notification-service",
	}
	s := c.Notification()
	assert.True(t, s.Enabled)
	assert.Equal(t, []string{"a@example.com"}, s.Recipients)
	assert.Equal(t, "noreply@example.com", s.FromAddr)
	assert.Equal(t, "Quejas", s.FromName)
	assert.InDelta(t, 2.0, s.RatePerSec, 0)

	// The notifier must not observe later edits to the config.
	c.AdminEmails[0] = "changed@example.com"
	assert.Equal(t, "a@example.com", s.Recipients[0])
}

func TestAppConfig_SMTP(t *testing.T) {
	c := &AppConfig{
		SMTPHost:       "smtp.example.com",
		SMTPPort:       465,
		SMTPUsername:   "user",
		SMTPPassword:   "secret",
		SMTPEncryption: "ssl_tls",
		SMTPTimeout:    5 * time.Second,
	}
	s := c.SMTP()
	assert.Equal(t, "smtp.example.com", s.Host)
	assert.Equal(t, 465, s.Port)
	assert.Equal(t, "ssl_tls", s.Encryption)
	assert.Equal(t, 5*time.Second, s.Timeout)
}

func TestAppConfig_Broker(t *testing.T) {
	c := &AppConfig{
		BrokerURL:       "http://broker:8080",
		CallbackBaseURL: "http://notifier:8081",
		ServiceName:     "notification-service",
		BrokerTimeout:   3 * time.Second,
	}
	b := c.Broker()
	assert.Equal(t, "http://broker:8080", b.BrokerURL)
	assert.Equal(t, "http://notifier:8081", b.CallbackBaseURL)
	assert.Equal(t, "notification-service", b.SubscriberName)
	assert.Equal(t, 3*time.Second, b.Timeout)
}

func TestAppConfig_Logger(t *testing.T) {
	c := &AppConfig{LogLevel: "debug", LogFormat: "text", LogFile: "/var/log/notifier.log", LogMaxSizeMB: 10}
	o := c.Logger()
	assert.Equal(t, slog.LevelDebug, o.Level)
	assert.Equal(t, "text", o.Format)
	assert.Equal(t, "/var/log/notifier.log", o.File)
	assert.Equal(t, 10, o.MaxSizeMB)
}

func TestValidate_FromAddress(t *testing.T) {
	base := func() *AppConfig {
		return &AppConfig{
			LogFormat:              "json",
			MailProvider:           MailProviderSMTP,
			EmailEnabled:           true,
			EventProcessorCoreSize: 1,
			EventProcessorMaxSize:  1,
			EmailSenderCoreSize:    1,
			EmailSenderMaxSize:     1,
		}
	}

	c := base()
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTIFICATION_EMAIL_FROM")

	c = base()
	c.MailProvider = MailProviderSES
	assert.Error(t, c.Validate())

	c = base()
	c.EmailFrom = "noreply@example.com"
	assert.NoError(t, c.Validate())

	c = base()
	c.EmailEnabled = false
	assert.NoError(t, c.Validate())

	c = base()
	c.MailProvider = MailProviderLog
	assert.NoError(t, c.Validate())
}
