// Package broker talks to the event broker: it registers this service as a
// REPORT_VIEWED subscriber and probes the broker's health endpoint.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/uptc/quejas-notifier/internal/build"
	"github.com/uptc/quejas-notifier/internal/event"
)

const (
	subscribePath = "/api/events/subscribe"
	healthPath    = "/api/events/health"

	// CallbackPath is where the broker delivers REPORT_VIEWED events.
	CallbackPath = "/api/notifications/events/report-viewed"

	unknownSubscription = "unknown"
	maxResponseBytes    = 1 << 20
)

// SubscriptionRequest registers a callback for one event type.
type SubscriptionRequest struct {
	EventType      string `json:"eventType"`
	CallbackURL    string `json:"callbackUrl"`
	SubscriberName string `json:"subscriberName"`
}

type subscriptionResponse struct {
	SubscriptionID string `json:"subscriptionId"`
}

// Config holds the broker endpoints and this service's identity.
type Config struct {
	BrokerURL       string
	CallbackBaseURL string
	SubscriberName  string
	Timeout         time.Duration
}

// Client is a thin HTTP client for the broker API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Client with an instrumented HTTP transport.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.With("broker_url", cfg.BrokerURL),
	}
}

// CallbackURL is the address the broker should POST events to.
func (c *Client) CallbackURL() string {
	return c.cfg.CallbackBaseURL + CallbackPath
}

// Subscribe registers this service for REPORT_VIEWED events. The outcome is
// logged here; callers decide whether an error matters. A 2xx response with no
// usable subscription id yields "unknown".
func (c *Client) Subscribe(ctx context.Context) (string, error) {
	c.logger.Info("subscribing to REPORT_VIEWED events")

	req := SubscriptionRequest{
		EventType:      event.TypeReportViewed,
		CallbackURL:    c.CallbackURL(),
		SubscriberName: c.cfg.SubscriberName,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding subscription request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BrokerURL+subscribePath, bytes.NewReader(payload))
	if err != nil {
		c.logger.Error("error subscribing to broker", "error", err)
		return "", fmt.Errorf("building subscription request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", build.UserAgent())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error("error subscribing to broker", "error", err)
		return "", fmt.Errorf("subscribing to broker: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("failed to subscribe to broker", "status", resp.StatusCode)
		return "", fmt.Errorf("subscribing to broker: unexpected status %d", resp.StatusCode)
	}

	id := unknownSubscription
	var sr subscriptionResponse
	if err := json.Unmarshal(body, &sr); err == nil && sr.SubscriptionID != "" {
		id = sr.SubscriptionID
	}
	c.logger.Info("subscribed to broker", "subscription_id", id, "callback_url", req.CallbackURL)
	return id, nil
}

// CheckHealth reports whether the broker health endpoint answers 2xx.
func (c *Client) CheckHealth(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BrokerURL+healthPath, nil)
	if err != nil {
		c.logger.Error("broker health check failed", "error", err)
		return false
	}
	req.Header.Set("User-Agent", build.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("broker health check failed", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
