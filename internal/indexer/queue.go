package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// IngestJob is one document submitted for background ingestion.
type IngestJob struct {
	DocumentID string
	UserID     string
	Text       string
	Meta       DocumentMeta
}

type queuedJob struct {
	job  IngestJob
	done chan error
}

// Queue runs ingestion jobs on background workers. Each submission gets its
// own completion channel, so callers choose between fire-and-forget and
// awaiting the outcome; failures are never silently unobservable.
type Queue struct {
	pipeline *Pipeline
	jobs     chan queuedJob
	wg       sync.WaitGroup
	logger   *slog.Logger

	closeOnce sync.Once
}

// NewQueue starts a queue with the given number of workers and job buffer.
func NewQueue(pipeline *Pipeline, workers, buffer int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}

	q := &Queue{
		pipeline: pipeline,
		jobs:     make(chan queuedJob, buffer),
		logger:   slog.Default(),
	}

	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker()
	}
	return q
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for item := range q.jobs {
		_, err := q.pipeline.IndexDocument(context.Background(), item.job.DocumentID, item.job.UserID, item.job.Text, item.job.Meta)
		if err != nil {
			q.logger.Error("background ingestion failed", "document_id", item.job.DocumentID, "error", err)
		}
		item.done <- err
		close(item.done)
	}
}

// Submit enqueues a job and returns its completion channel. The channel
// receives exactly one value (nil on success) and is then closed. Submit
// blocks while the buffer is full and fails if ctx is canceled first.
func (q *Queue) Submit(ctx context.Context, job IngestJob) (<-chan error, error) {
	done := make(chan error, 1)
	select {
	case q.jobs <- queuedJob{job: job, done: done}:
		return done, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to enqueue ingestion job: %w", ctx.Err())
	}
}

// Close stops accepting jobs and waits for in-flight jobs to finish.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
}
