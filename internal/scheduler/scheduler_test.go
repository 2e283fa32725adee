package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

func TestQueueEnqueueDequeue(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	task := analyzer.Task{WebsiteID: 1, Stage: analyzer.StageSitemap}
	require.NoError(t, q.Enqueue(context.Background(), task))

	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, task, got)
}

func TestQueueCancellation(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Dequeue(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, q.Enqueue(context.Background(), analyzer.Task{}))
	require.ErrorIs(t, q.Enqueue(ctx, analyzer.Task{}), context.Canceled)
}

func TestSchedulerImmediateAndDelayed(t *testing.T) {
	t.Parallel()

	q := NewQueue(4)
	s := New(context.Background(), q, zap.NewNop())
	defer s.Stop()

	require.NoError(t, s.Schedule(context.Background(), analyzer.Task{WebsiteID: 1, Stage: analyzer.StageWebsite}, 0))
	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, analyzer.StageWebsite, got.Stage)

	require.NoError(t, s.Schedule(context.Background(), analyzer.Task{WebsiteID: 1, Stage: analyzer.StageSitemap}, 20*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, analyzer.StageSitemap, got.Stage)
}

func TestSchedulerStopCancelsTimers(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	s := New(context.Background(), q, zap.NewNop())
	require.NoError(t, s.Schedule(context.Background(), analyzer.Task{WebsiteID: 1, Stage: analyzer.StageSEO}, 50*time.Millisecond))
	s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err := q.Dequeue(ctx)
	require.Error(t, err)
}

type countingRunner struct {
	mu       sync.Mutex
	fails    int
	attempts []int
}

func (r *countingRunner) Run(_ context.Context, task analyzer.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, task.Attempt)
	if len(r.attempts) <= r.fails {
		return errors.New("transient")
	}
	return nil
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}

func TestDispatcherRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	runner := &countingRunner{fails: 2}
	d := NewDispatcher(q, runner, DispatcherConfig{
		Workers:     1,
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.NoError(t, q.Enqueue(ctx, analyzer.Task{WebsiteID: 1, Stage: analyzer.StageSitemap}))
	require.Eventually(t, func() bool {
		return runner.count() == 3
	}, 2*time.Second, 10*time.Millisecond)

	runner.mu.Lock()
	require.Equal(t, []int{1, 2, 3}, runner.attempts)
	runner.mu.Unlock()
}

func TestDispatcherExhaustsRetries(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	runner := &countingRunner{fails: 100}
	d := NewDispatcher(q, runner, DispatcherConfig{
		Workers:     1,
		MaxAttempts: 2,
		BackoffBase: time.Millisecond,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.NoError(t, q.Enqueue(ctx, analyzer.Task{WebsiteID: 1, Stage: analyzer.StageWebsite}))
	require.Eventually(t, func() bool {
		return runner.count() == 2
	}, 2*time.Second, 10*time.Millisecond)

	// No further attempts after exhaustion.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 2, runner.count())
}
