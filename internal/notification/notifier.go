package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/uptc/quejas-notifier/internal/event"
	"github.com/uptc/quejas-notifier/internal/metrics"
	"github.com/uptc/quejas-notifier/internal/workerpool"
)

// Pool schedules tasks. *workerpool.Pool satisfies it.
type Pool interface {
	Submit(task workerpool.Task) error
}

// Notifier turns report-viewed events into one email per administrator.
type Notifier struct {
	settings Settings
	provider Provider
	events   Pool
	sends    Pool
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewNotifier creates a Notifier. events runs one Notify per event; sends runs
// the individual deliveries. m may be nil.
func NewNotifier(settings Settings, provider Provider, events, sends Pool, m *metrics.Metrics, logger *slog.Logger) *Notifier {
	settings.Recipients = append([]string(nil), settings.Recipients...)

	var lim *rate.Limiter
	if settings.RatePerSec > 0 {
		burst := int(settings.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(settings.RatePerSec), burst)
	}

	return &Notifier{
		settings: settings,
		provider: provider,
		events:   events,
		sends:    sends,
		limiter:  lim,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Enabled reports whether email dispatch is switched on.
func (n *Notifier) Enabled() bool { return n.settings.Enabled }

// Dispatch schedules Notify for ev on the event pool and returns without
// waiting for delivery. It fails only when the event pool no longer accepts work.
func (n *Notifier) Dispatch(ev *event.ReportViewed) error {
	err := n.events.Submit(func() {
		if err := n.Notify(context.Background(), ev); err != nil {
			n.logger.Error("async notification failed", "event_id", ev.EventID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling notification for event %s: %w", ev.EventID, err)
	}
	return nil
}

// Notify renders ev once and sends it to every recipient concurrently. It
// returns after all sends have finished; individual send failures are logged
// and never abort the others.
func (n *Notifier) Notify(ctx context.Context, ev *event.ReportViewed) error {
	if !n.settings.Enabled {
		n.logger.Debug("email notifications disabled, skipping", "event_id", ev.EventID)
		return nil
	}
	if len(n.settings.Recipients) == 0 {
		n.logger.Warn("no admin emails configured", "event_id", ev.EventID)
		return nil
	}

	log := n.logger.With(
		"service", n.settings.ServiceName,
		"event_id", ev.EventID,
		"dispatch_id", uuid.NewString(),
	)
	log.Info("processing notification",
		"event_type", ev.EventType,
		"report_type", ev.ReportType,
		"timestamp", ev.Timestamp,
		"total_complaints", ev.TotalComplaints,
		"ip_address", ev.IPAddress,
	)

	content, err := Render(ev, n.now())
	if err != nil {
		log.Error("failed to render notification", "error", err)
		return fmt.Errorf("rendering notification for event %s: %w", ev.EventID, err)
	}

	start := time.Now()
	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)
	for _, recipient := range n.settings.Recipients {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := n.sendOne(ctx, log, recipient, content); err != nil {
				failed.Add(1)
			}
		}
		if err := n.sends.Submit(task); err != nil {
			log.Warn("send pool unavailable, sending inline", "recipient", recipient, "error", err)
			task()
		}
	}
	wg.Wait()

	fields := []any{
		"recipients", len(n.settings.Recipients),
		"failed", failed.Load(),
		"duration", time.Since(start),
	}
	if failed.Load() > 0 {
		log.Warn("notification processed with failures", fields...)
	} else {
		log.Info("notification processed", fields...)
	}
	return nil
}

// sendOne performs exactly one send. The error is logged and counted here;
// callers only use it for the summary.
func (n *Notifier) sendOne(ctx context.Context, log *slog.Logger, recipient string, c Content) error {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			log.Error("rate limiter aborted send", "recipient", recipient, "error", err)
			n.metrics.EmailSent(n.provider.Name(), metrics.StatusFailed, 0)
			return err
		}
	}

	log.Debug("sending email", "recipient", recipient)
	start := time.Now()
	err := n.provider.Send(ctx, Message{
		To:       recipient,
		FromAddr: n.settings.FromAddr,
		FromName: n.settings.FromName,
		Subject:  c.Subject,
		HTML:     c.HTML,
		Text:     c.Text,
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		n.metrics.EmailSent(n.provider.Name(), metrics.StatusFailed, elapsed)
		log.Error("failed to send email", "recipient", recipient, "provider", n.provider.Name(), "error", err)
		return err
	}
	n.metrics.EmailSent(n.provider.Name(), metrics.StatusSent, elapsed)
	log.Info("email sent", "recipient", recipient)
	return nil
}
