package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/uptc/quejas-notifier/internal/metrics"
)

// HealthChecker is satisfied by *Client.
type HealthChecker interface {
	CheckHealth(ctx context.Context) bool
}

// Monitor probes the broker on a fixed interval and logs up/down transitions.
type Monitor struct {
	checker  HealthChecker
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger

	cron gocron.Scheduler

	mu    sync.Mutex
	known bool
	up    bool
}

// NewMonitor creates a Monitor. m may be nil.
func NewMonitor(checker HealthChecker, interval time.Duration, m *metrics.Metrics, logger *slog.Logger) (*Monitor, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("broker health interval must be positive, got %s", interval)
	}
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	return &Monitor{
		checker:  checker,
		interval: interval,
		metrics:  m,
		logger:   logger,
		cron:     cron,
	}, nil
}

// Start schedules the probe, running the first one immediately.
func (m *Monitor) Start() error {
	_, err := m.cron.NewJob(
		gocron.DurationJob(m.interval),
		gocron.NewTask(m.Probe),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("scheduling broker health probe: %w", err)
	}
	m.cron.Start()
	m.logger.Info("broker health monitor started", "interval", m.interval)
	return nil
}

// Stop shuts down the scheduler.
func (m *Monitor) Stop() error {
	return m.cron.Shutdown()
}

// Probe runs a single health check and records the result.
func (m *Monitor) Probe() {
	ctx, cancel := context.WithTimeout(context.Background(), m.interval)
	defer cancel()

	up := m.checker.CheckHealth(ctx)
	m.metrics.BrokerUp(up)

	m.mu.Lock()
	changed := !m.known || m.up != up
	m.known, m.up = true, up
	m.mu.Unlock()

	if !changed {
		return
	}
	if up {
		m.logger.Info("broker is reachable")
	} else {
		m.logger.Warn("broker is unreachable")
	}
}

// state returns the result of the last probe and whether any probe has run.
func (m *Monitor) state() (up, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.up, m.known
}
