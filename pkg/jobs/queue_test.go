package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueueRoutesByType(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 2})
	done := make(chan string, 2)
	q.Register("a", func(ctx context.Context, job Job) error {
		done <- "a:" + job.ID
		return nil
	})
	q.Register("b", func(ctx context.Context, job Job) error {
		done <- "b:" + job.ID
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "a"}))
	require.NoError(t, q.Enqueue(Job{ID: "2", Type: "b"}))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case v := <-done:
			got[v] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	assert.True(t, got["a:1"])
	assert.True(t, got["b:2"])
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	q := NewQueue("retry", QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	var calls atomic.Int32
	succeeded := make(chan struct{})
	q.Register("flaky", func(ctx context.Context, job Job) error {
		if calls.Add(1) < 3 {
			return errors.New("try again")
		}
		close(succeeded)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "x", Type: "flaky"}))
	select {
	case <-succeeded:
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("idle", QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "1", Type: "a"}))
}

func TestQueueLogsDroppedJobsWithQueueName(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	q := NewQueue("notifications", QueueConfig{Logger: zap.New(core)})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "n1", Type: "unknown"}))
	require.Eventually(t, func() bool {
		return logs.FilterMessage("dropping job").Len() == 1
	}, 2*time.Second, 5*time.Millisecond)

	fields := logs.FilterMessage("dropping job").All()[0].ContextMap()
	assert.Equal(t, "notifications", fields["queue"])
	assert.Equal(t, "n1", fields["job_id"])
	assert.Equal(t, uint64(1), q.Stats().Dropped)
}
