package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/lassa-tracker/internal/document"
)

// Job is one page to process.
type Job struct {
	Doc       document.SourceDocument
	PageIndex int
}

// Queue fans page jobs out to a bounded worker pool. The pool is sized
// to the extraction service's rate budget, not to page count. Workers
// run each job under their own timeout context so a run-level shutdown
// lets in-flight attempts finish instead of cutting one mid-commit.
type Queue struct {
	proc    *Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(proc *Processor, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.proc.ProcessPage(ctx, job.Doc, job.PageIndex)
					cancel()

					if err != nil {
						q.logger.Error("page processing failed",
							"worker_id", workerID, "doc_id", job.Doc.ID,
							"year", job.Doc.Year, "page", job.PageIndex, "error", err)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue adds a page job, blocking when the buffer is full.
func (q *Queue) Enqueue(_ context.Context, job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down",
			"doc_id", job.Doc.ID, "page", job.PageIndex)
		return
	}
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue full, applying backpressure",
			"doc_id", job.Doc.ID, "page", job.PageIndex)
		q.ch <- job
	}
}

// Shutdown stops intake and waits for in-flight jobs to drain, or for
// ctx to expire.
func (q *Queue) Shutdown(ctx context.Context) {
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
