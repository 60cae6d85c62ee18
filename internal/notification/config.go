package notification

import "time"

// SMTPConfig holds connection parameters for the SMTP provider.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Encryption string // "none", "starttls", "ssl_tls"
	Timeout    time.Duration
}

// Settings is the immutable notifier configuration.
type Settings struct {
	Enabled     bool
	Recipients  []string
	FromAddr    string
	FromName    string
	RatePerSec  float64
	ServiceName string
}
