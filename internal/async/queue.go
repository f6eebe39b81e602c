// Package async runs invoice extraction jobs on a bounded worker pool.
package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
)

// Job is one file to extract. Origin carries provenance ("pasta:..." or
// "email:<file>|centro:<code>"); Centro is set when the sender already
// assigned a cost center.
type Job struct {
	Path        string
	Origin      string
	Centro      string
	SubmittedAt time.Time
	TraceID     string
}

// NewJob stamps a job with submission time and a trace id.
func NewJob(path, origin, centro string) Job {
	return Job{
		Path:        path,
		Origin:      origin,
		Centro:      centro,
		SubmittedAt: time.Now(),
		TraceID:     uuid.NewString(),
	}
}

// Processor handles one job end to end (OCR, extraction, export, ledger).
type Processor interface {
	Process(ctx context.Context, job Job) error
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

type ExtractQueue struct {
	proc    Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ExtractQueue)

func WithWorkers(n int) Option {
	return func(q *ExtractQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ExtractQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ExtractQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewExtractQueue(proc Processor, logger *slog.Logger, opts ...Option) *ExtractQueue {
	q := &ExtractQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ExtractQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.proc.Process(ctx, job)
					cancel()

					if err != nil {
						q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "trace_id", job.TraceID, "error", err)
					} else {
						q.logger.Info("processed file successfully", "worker_id", workerID, "path", job.Path, "trace_id", job.TraceID)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ExtractQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued file for processing", "path", job.Path, "centro", job.Centro)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

func (q *ExtractQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
