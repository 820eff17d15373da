package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan Job, 1)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		done <- job
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "notify"}))

	select {
	case job := <-done:
		require.Equal(t, 2, job.Attempt)
		require.NotEmpty(t, job.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestQueueRejectsWhenStoppedOrFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, _ Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	require.ErrorIs(t, q.Enqueue(Job{}), ErrNotRunning)

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{}))

	var full bool
	for i := 0; i < 5; i++ {
		if err := q.Enqueue(Job{}); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
	}
	require.True(t, full)

	close(block)
	q.Stop()
	require.ErrorIs(t, q.Enqueue(Job{}), ErrNotRunning)
}
