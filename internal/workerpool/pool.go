// Package workerpool provides a bounded goroutine pool.
//
// Tasks go to a buffered queue drained by a fixed set of core workers. When
// the queue is full, extra workers are started up to a maximum; they exit
// after staying idle for the keep-alive period. When the pool is saturated the
// task runs on the submitting goroutine instead of being rejected, which
// throttles producers without losing work.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const defaultKeepAlive = 60 * time.Second

// ErrPoolClosed is returned by Submit after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is shut down")

// Task is a unit of work. It must handle its own errors.
type Task func()

// Config sizes a Pool.
type Config struct {
	// Name prefixes worker names in logs, e.g. "email-sender-" → "email-sender-1".
	Name          string
	CoreSize      int
	MaxSize       int
	QueueCapacity int
	// AwaitTermination bounds how long Shutdown waits for queued and running
	// tasks. Zero waits until the caller's context is done.
	AwaitTermination time.Duration
	// KeepAlive is how long an extra worker may idle before exiting. Defaults to 60s.
	KeepAlive time.Duration
}

// Validate reports sizing errors.
func (c Config) Validate() error {
	if c.CoreSize <= 0 {
		return fmt.Errorf("core size must be positive, got %d", c.CoreSize)
	}
	if c.MaxSize < c.CoreSize {
		return fmt.Errorf("max size %d is below core size %d", c.MaxSize, c.CoreSize)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("queue capacity must not be negative, got %d", c.QueueCapacity)
	}
	if c.AwaitTermination < 0 {
		return fmt.Errorf("await termination must not be negative, got %s", c.AwaitTermination)
	}
	return nil
}

// Pool runs tasks on a bounded set of goroutines.
type Pool struct {
	cfg    Config
	logger *slog.Logger
	queue  chan Task

	// mu guards closed and the queue close; Submit holds the read lock so
	// it never sends on a closed channel.
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	workers    atomic.Int32
	seq        atomic.Int64
	callerRuns atomic.Int64
}

// New creates a pool and starts its core workers.
func New(cfg Config, logger *slog.Logger) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("workerpool %q: %w", cfg.Name, err)
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = defaultKeepAlive
	}
	p := &Pool{
		cfg:    cfg,
		logger: logger.With("pool", cfg.Name),
		queue:  make(chan Task, cfg.QueueCapacity),
	}
	for i := 0; i < cfg.CoreSize; i++ {
		p.workers.Add(1)
		p.wg.Add(1)
		go p.coreWorker(p.nextName())
	}
	p.logger.Info("worker pool initialized",
		"core", cfg.CoreSize, "max", cfg.MaxSize, "queue", cfg.QueueCapacity)
	return p, nil
}

// Submit schedules task. It returns ErrPoolClosed after Shutdown. When every
// worker is busy and the queue is full, task runs before Submit returns.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}

	select {
	case p.queue <- task:
		p.mu.RUnlock()
		return nil
	default:
	}

	if p.tryAddWorker() {
		p.wg.Add(1)
		go p.extraWorker(p.nextName(), task)
		p.mu.RUnlock()
		return nil
	}
	p.mu.RUnlock()

	p.callerRuns.Add(1)
	p.logger.Debug("pool saturated, running task on caller")
	p.run(task, "caller")
	return nil
}

// Shutdown stops accepting tasks and waits for queued and running ones to
// finish, bounded by AwaitTermination and ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	if p.cfg.AwaitTermination > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.AwaitTermination)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped")
		return nil
	case <-ctx.Done():
		pending := len(p.queue)
		p.logger.Warn("worker pool did not drain in time",
			"pending", pending, "workers", p.Workers())
		return fmt.Errorf("workerpool %q: %d queued tasks abandoned: %w", p.cfg.Name, pending, ctx.Err())
	}
}

// Queued returns the number of tasks waiting in the queue.
func (p *Pool) Queued() int { return len(p.queue) }

// Workers returns the number of live worker goroutines.
func (p *Pool) Workers() int { return int(p.workers.Load()) }

// CallerRuns returns how many tasks ran on the submitting goroutine.
func (p *Pool) CallerRuns() int64 { return p.callerRuns.Load() }

// Name returns the configured pool name.
func (p *Pool) Name() string { return p.cfg.Name }

func (p *Pool) nextName() string {
	return p.cfg.Name + strconv.FormatInt(p.seq.Add(1), 10)
}

func (p *Pool) tryAddWorker() bool {
	for {
		n := p.workers.Load()
		if int(n) >= p.cfg.MaxSize {
			return false
		}
		if p.workers.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (p *Pool) coreWorker(name string) {
	defer p.wg.Done()
	defer p.workers.Add(-1)
	for task := range p.queue {
		p.run(task, name)
	}
}

// extraWorker runs first, then keeps draining the queue until it has been
// idle for KeepAlive or the pool shuts down.
func (p *Pool) extraWorker(name string, first Task) {
	defer p.wg.Done()
	defer p.workers.Add(-1)

	p.run(first, name)

	idle := time.NewTimer(p.cfg.KeepAlive)
	defer idle.Stop()
	for {
		select {
		case task, ok := <-p.queue:
			if !ok {
				return
			}
			p.run(task, name)
			idle.Reset(p.cfg.KeepAlive)
		case <-idle.C:
			return
		}
	}
}

// run invokes task with panic recovery so one bad task cannot kill a worker.
func (p *Pool) run(task Task, worker string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", "worker", worker, "panic", r)
		}
	}()
	task()
}
