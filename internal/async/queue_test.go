package async

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProcessor struct {
	mu    sync.Mutex
	paths []string
}

func (p *countingProcessor) Process(_ context.Context, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append(p.paths, job.Path)
	return nil
}

func TestQueueProcessesAllJobs(t *testing.T) {
	proc := &countingProcessor{}
	q := NewExtractQueue(proc, slog.Default(), WithWorkers(2), WithQueueSize(16))

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(context.Background(), NewJob("/in/fatura.pdf", "pasta", "")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.Len(t, proc.paths, 10)
}

func TestEnqueueAfterShutdownIsNoop(t *testing.T) {
	proc := &countingProcessor{}
	q := NewExtractQueue(proc, slog.Default(), WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)

	require.NoError(t, q.Enqueue(context.Background(), NewJob("/in/tarde.pdf", "pasta", "")))
	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.Empty(t, proc.paths)
}

func TestNewJobStampsTrace(t *testing.T) {
	j := NewJob("/in/a.pdf", "email:a.pdf|centro:25.113", "25.113")
	assert.NotEmpty(t, j.TraceID)
	assert.False(t, j.SubmittedAt.IsZero())
	assert.Equal(t, "25.113", j.Centro)
}
