package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 2)
	q := NewQueue("test", func(ctx context.Context, job Job[string]) error {
		done <- job.Payload
		return nil
	}, QueueConfig[string]{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[string]{ID: "1", Payload: "a"}))
	require.NoError(t, q.Enqueue(Job[string]{ID: "2", Payload: "b"}))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case payload := <-done:
			got[payload] = true
		case <-time.After(time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, got)
}

func TestQueueRetriesThenGivesUp(t *testing.T) {
	var calls int32
	exhausted := make(chan Job[int], 1)
	q := NewQueue("retry", func(ctx context.Context, job Job[int]) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	}, QueueConfig[int]{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnExhausted: func(ctx context.Context, job Job[int], err error) {
			exhausted <- job
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[int]{ID: "r", Payload: 7}))

	select {
	case job := <-exhausted:
		assert.Equal(t, 3, job.Attempt)
		assert.Equal(t, 7, job.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("job never exhausted")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueRecoversPanics(t *testing.T) {
	exhausted := make(chan error, 1)
	q := NewQueue("panic", func(ctx context.Context, job Job[struct{}]) error {
		panic("bad handler")
	}, QueueConfig[struct{}]{
		OnExhausted: func(ctx context.Context, job Job[struct{}], err error) {
			exhausted <- err
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[struct{}]{ID: "p"}))
	select {
	case err := <-exhausted:
		assert.Contains(t, err.Error(), "bad handler")
	case <-time.After(time.Second):
		t.Fatal("panic not converted to failure")
	}
}

func TestQueueRejectsWhenNotRunning(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job[string]) error { return nil }, QueueConfig[string]{})

	err := q.Enqueue(Job[string]{ID: "x"})
	assert.ErrorIs(t, err, ErrQueueStopped)

	q.Start(context.Background())
	q.Stop()
	err = q.Enqueue(Job[string]{ID: "y"})
	assert.ErrorIs(t, err, ErrQueueStopped)
}
