package taskqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnqueue_UnknownTask(t *testing.T) {
	q := New(Options{})

	err := q.Enqueue(context.Background(), "nope", nil)

	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestProcess_SuccessFirstAttempt(t *testing.T) {
	q := New(Options{Workers: 1, BackoffBase: time.Millisecond})

	done := make(chan []byte, 1)
	q.Register("greet", func(ctx context.Context, payload []byte) error {
		done <- payload
		return nil
	})
	q.Start()
	defer q.Stop(time.Second)

	assert.NoError(t, q.Enqueue(context.Background(), "greet", []byte("hello")))

	select {
	case payload := <-done:
		assert.Equal(t, []byte("hello"), payload)
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
}

func TestProcess_RetriesThenSucceeds(t *testing.T) {
	q := New(Options{Workers: 1, MaxAttempts: 3, BackoffBase: time.Millisecond})

	var attempts int32
	done := make(chan struct{})
	q.Register("flaky", func(ctx context.Context, payload []byte) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	})
	q.Start()
	defer q.Stop(time.Second)

	assert.NoError(t, q.Enqueue(context.Background(), "flaky", nil))

	select {
	case <-done:
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	case <-time.After(2 * time.Second):
		t.Fatal("task never succeeded")
	}
}

func TestProcess_ExhaustedRetriesCallsOnFailure(t *testing.T) {
	var mu sync.Mutex
	var failedTask string
	var failedErr error
	failed := make(chan struct{})

	q := New(Options{
		Workers:     1,
		MaxAttempts: 2,
		BackoffBase: time.Millisecond,
		OnFailure: func(task Task, err error) {
			mu.Lock()
			failedTask = task.Name
			failedErr = err
			mu.Unlock()
			close(failed)
		},
	})

	var attempts int32
	q.Register("doomed", func(ctx context.Context, payload []byte) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("permanent")
	})
	q.Start()
	defer q.Stop(time.Second)

	assert.NoError(t, q.Enqueue(context.Background(), "doomed", nil))

	select {
	case <-failed:
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "doomed", failedTask)
		assert.EqualError(t, failedErr, "permanent")
		assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	case <-time.After(2 * time.Second):
		t.Fatal("failure hook never fired")
	}
}

func TestProcess_PanicIsRecovered(t *testing.T) {
	failed := make(chan error, 1)

	q := New(Options{
		Workers:     1,
		MaxAttempts: 1,
		BackoffBase: time.Millisecond,
		OnFailure: func(task Task, err error) {
			failed <- err
		},
	})

	q.Register("panicky", func(ctx context.Context, payload []byte) error {
		panic("boom")
	})
	q.Start()
	defer q.Stop(time.Second)

	assert.NoError(t, q.Enqueue(context.Background(), "panicky", nil))

	select {
	case err := <-failed:
		assert.Contains(t, err.Error(), "panicked")
	case <-time.After(2 * time.Second):
		t.Fatal("panic was not surfaced")
	}
}

func TestEnqueue_AfterStop(t *testing.T) {
	q := New(Options{Workers: 1})
	q.Register("noop", func(ctx context.Context, payload []byte) error { return nil })
	q.Start()
	assert.NoError(t, q.Stop(time.Second))

	err := q.Enqueue(context.Background(), "noop", nil)

	assert.ErrorIs(t, err, ErrStopped)
}

func TestPending(t *testing.T) {
	q := New(Options{Workers: 1})
	q.Register("buffered", func(ctx context.Context, payload []byte) error { return nil })

	// Workers not started, so tasks accumulate
	assert.NoError(t, q.Enqueue(context.Background(), "buffered", nil))
	assert.NoError(t, q.Enqueue(context.Background(), "buffered", nil))

	assert.Equal(t, 2, q.Pending())
}
