package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// Scheduler enqueues stage tasks after a delay. Delays stagger the pipeline
// stages; they are advisory ordering, not dependency barriers.
type Scheduler struct {
	queue   *Queue
	logger  *zap.Logger
	baseCtx context.Context

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
}

// New constructs a scheduler on top of the given queue. baseCtx bounds the
// lifetime of pending timers; canceling it drops undelivered tasks.
func New(baseCtx context.Context, queue *Queue, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		queue:   queue,
		logger:  logger,
		baseCtx: baseCtx,
		timers:  make(map[*time.Timer]struct{}),
	}
}

// Schedule arms a timer that enqueues the task after the delay. A zero delay
// enqueues immediately.
func (s *Scheduler) Schedule(ctx context.Context, task analyzer.Task, delay time.Duration) error {
	if delay <= 0 {
		return s.queue.Enqueue(ctx, task)
	}

	s.mu.Lock()
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, timer)
		s.mu.Unlock()
		if err := s.queue.Enqueue(s.baseCtx, task); err != nil {
			s.logger.Warn("delayed task dropped",
				zap.Int64("website_id", task.WebsiteID),
				zap.String("stage", string(task.Stage)),
				zap.Error(err))
		}
	})
	s.timers[timer] = struct{}{}
	s.mu.Unlock()

	s.logger.Debug("task scheduled",
		zap.Int64("website_id", task.WebsiteID),
		zap.String("stage", string(task.Stage)),
		zap.Duration("delay", delay))
	return nil
}

// Stop cancels all pending timers.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for timer := range s.timers {
		timer.Stop()
	}
	s.timers = make(map[*time.Timer]struct{})
}
