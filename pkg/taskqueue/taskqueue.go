package taskqueue

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/jkarimi/iou-engine/pkg/logger"
)

var (
	ErrUnknownTask = errors.New("no handler registered for task")
	ErrStopped     = errors.New("queue is stopped")
)

// Handler processes one task payload. Returning an error triggers a
// retry with backoff until attempts are exhausted.
type Handler func(ctx context.Context, payload []byte) error

// Task is a named unit of background work.
type Task struct {
	Name    string
	Payload []byte
}

// Options configures the queue. Retry count, backoff and the
// terminal-failure action are queue parameters, not handler control flow.
type Options struct {
	Workers     int
	BufferSize  int
	MaxAttempts int
	BackoffBase time.Duration
	OnFailure   func(task Task, err error)
}

// Queue is an in-process background task queue backed by a worker pool.
// Execution is at-least-once: handlers must tolerate duplicate runs.
type Queue struct {
	opts     Options
	handlers map[string]Handler
	jobs     chan Task
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
	started  bool
}

func New(opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 256
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		opts:     opts,
		handlers: make(map[string]Handler),
		jobs:     make(chan Task, opts.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register binds a handler to a task name. Must be called before Start.
func (q *Queue) Register(name string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = handler
}

// Enqueue publishes a task onto the queue.
func (q *Queue) Enqueue(ctx context.Context, name string, payload []byte) error {
	q.mu.RLock()
	_, ok := q.handlers[name]
	q.mu.RUnlock()
	if !ok {
		return errors.Wrap(ErrUnknownTask, name)
	}

	select {
	case <-q.ctx.Done():
		return ErrStopped
	default:
	}

	select {
	case q.jobs <- Task{Name: name, Payload: payload}:
		return nil
	case <-q.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the worker pool.
func (q *Queue) Start() {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	q.wg.Add(q.opts.Workers)
	for i := 0; i < q.opts.Workers; i++ {
		go func(index int) {
			defer q.wg.Done()
			for {
				select {
				case task := <-q.jobs:
					q.process(index, task)
				case <-q.ctx.Done():
					return
				}
			}
		}(i)
	}
}

// Stop shuts the pool down, waiting up to timeout for in-flight tasks.
// There is no cancellation of a running attempt; it completes or fails.
func (q *Queue) Stop(timeout time.Duration) error {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("timeout waiting for workers to stop")
	}
}

// Pending returns the number of buffered tasks not yet picked up.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

func (q *Queue) process(workerIndex int, task Task) {
	q.mu.RLock()
	handler := q.handlers[task.Name]
	q.mu.RUnlock()

	var lastErr error
	for attempt := 1; attempt <= q.opts.MaxAttempts; attempt++ {
		lastErr = q.runAttempt(handler, task)
		if lastErr == nil {
			return
		}

		logger.Warn("task attempt failed",
			"task", task.Name,
			"worker", workerIndex,
			"attempt", attempt,
			"error", lastErr,
		)

		if attempt == q.opts.MaxAttempts {
			break
		}

		// Exponential backoff: base, 2*base, 4*base, ...
		delay := q.opts.BackoffBase << (attempt - 1)
		select {
		case <-time.After(delay):
		case <-q.ctx.Done():
			return
		}
	}

	logger.Error("task exhausted retries", "task", task.Name, "error", lastErr)
	if q.opts.OnFailure != nil {
		q.opts.OnFailure(task, lastErr)
	}
}

func (q *Queue) runAttempt(handler Handler, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("task %s panicked: %v", task.Name, r)
		}
	}()
	return handler(q.ctx, task.Payload)
}
