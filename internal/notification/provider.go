// Package notification renders report-viewed alerts and delivers them to the
// configured administrators through a pluggable mail Provider.
package notification

import "context"

// Message is one email addressed to a single recipient.
type Message struct {
	To       string
	FromAddr string
	FromName string
	Subject  string
	HTML     string
	Text     string
}

// Provider is the interface for mail delivery backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "smtp").
	Name() string
	// Send delivers the message using the provider's transport.
	Send(ctx context.Context, msg Message) error
}
