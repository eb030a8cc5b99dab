package async

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/schedorder/internal/async"
	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/metrics"
)

func TestProcessorQueue_ProcessesInOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
		ids  []string
	)
	q := NewProcessorQueue(func(ctx context.Context, job async.Job) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Path)
		ids = append(ids, common.RequestIDFromContext(ctx))
	}, nil, WithQueueSize(1))

	ctx := context.Background()
	for _, p := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		require.NoError(t, q.Enqueue(ctx, async.Job{Path: p, RequestID: "req-" + p}))
	}
	q.Shutdown(ctx)

	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, seen)
	assert.Equal(t, []string{"req-a.pdf", "req-b.pdf", "req-c.pdf"}, ids)
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(func(context.Context, async.Job) {}, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), async.Job{Path: "a.pdf"}), async.ErrQueueClosed)
}

func TestProcessorQueue_BackpressureHonoursContext(t *testing.T) {
	release := make(chan struct{})
	q := NewProcessorQueue(func(context.Context, async.Job) { <-release }, nil, WithQueueSize(1))
	defer func() {
		close(release)
		q.Shutdown(context.Background())
	}()

	require.NoError(t, q.Enqueue(context.Background(), async.Job{Path: "busy.pdf"}))
	// wait until the worker holds the first job so the buffer is empty
	require.Eventually(t, func() bool { return len(q.ch) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), async.Job{Path: "buffered.pdf"}))

	depth := testutil.ToFloat64(metrics.QueueDepth)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Enqueue(ctx, async.Job{Path: "blocked.pdf"}), context.DeadlineExceeded)
	assert.Equal(t, depth, testutil.ToFloat64(metrics.QueueDepth))
}

func TestProcessorQueue_DepthNeverBelowBaseline(t *testing.T) {
	baseline := testutil.ToFloat64(metrics.QueueDepth)
	var (
		mu   sync.Mutex
		seen []float64
	)
	q := NewProcessorQueue(func(context.Context, async.Job) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, testutil.ToFloat64(metrics.QueueDepth))
	}, nil, WithWorkers(4), WithQueueSize(1))

	for i := 0; i < 50; i++ {
		require.NoError(t, q.Enqueue(context.Background(), async.Job{Path: "doc.pdf"}))
	}
	q.Shutdown(context.Background())

	require.Len(t, seen, 50)
	for _, v := range seen {
		assert.GreaterOrEqual(t, v, baseline)
	}
	assert.Equal(t, baseline, testutil.ToFloat64(metrics.QueueDepth))
}

func TestProcessorQueue_HandlerTimeout(t *testing.T) {
	got := make(chan error, 1)
	q := NewProcessorQueue(func(ctx context.Context, _ async.Job) {
		<-ctx.Done()
		got <- ctx.Err()
	}, nil, WithProcessTimeout(10*time.Millisecond), WithWorkers(2))
	require.NoError(t, q.Enqueue(context.Background(), async.Job{Path: "slow.pdf"}))
	assert.ErrorIs(t, <-got, context.DeadlineExceeded)
	q.Shutdown(context.Background())
}
