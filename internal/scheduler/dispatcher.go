package scheduler

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// Runner executes one stage task. A returned error marks the attempt as
// retryable; stages that must not retry swallow their errors internally.
type Runner interface {
	Run(ctx context.Context, task analyzer.Task) error
}

// DispatcherConfig controls the worker pool and retry behavior.
type DispatcherConfig struct {
	Workers     int
	MaxAttempts int
	BackoffBase time.Duration
}

// Dispatcher consumes tasks from the queue and hands them to the runner with
// exponential-backoff retries.
type Dispatcher struct {
	queue  *Queue
	runner Runner
	cfg    DispatcherConfig
	logger *zap.Logger
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(queue *Queue, runner Runner, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	return &Dispatcher{
		queue:  queue,
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
}

// Run blocks, consuming tasks until the context finishes.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.workerLoop(ctx)
		}()
	}
	wg.Wait()
}

func (d *Dispatcher) workerLoop(ctx context.Context) {
	for {
		task, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.logger.Error("queue dequeue failed", zap.Error(err))
			return
		}
		d.process(ctx, task)
	}
}

func (d *Dispatcher) process(ctx context.Context, task analyzer.Task) {
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		task.Attempt = attempt
		err := d.runner.Run(ctx, task)
		if err == nil {
			return
		}
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		d.logger.Warn("stage attempt failed",
			zap.Int64("website_id", task.WebsiteID),
			zap.String("stage", string(task.Stage)),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt == d.cfg.MaxAttempts {
			d.logger.Error("stage retries exhausted",
				zap.Int64("website_id", task.WebsiteID),
				zap.String("stage", string(task.Stage)),
				zap.Error(err))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.backoff(attempt)):
		}
	}
}

// backoff doubles per attempt with up to 25% jitter.
func (d *Dispatcher) backoff(attempt int) time.Duration {
	base := d.cfg.BackoffBase << (attempt - 1)
	jitter := time.Duration(rand.Int64N(int64(base)/4 + 1))
	return base + jitter
}
