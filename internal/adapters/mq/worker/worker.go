// Package worker runs queued engine jobs and publishes their results.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/rbh/internal/adapters/blast"
	"github.com/okian/rbh/internal/adapters/mq/queue"
	"github.com/okian/rbh/pkg/logger"
	"github.com/okian/rbh/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 2 // one per direction
	poolShutdownTimeout = 30 * time.Second
)

// Job abstracts what workers read off the queue.
type Job = queue.Job

// Result is the outcome of one job.
type Result struct {
	JobID  string
	Kind   queue.JobKind
	Index  blast.Index // set for index jobs
	Output []byte      // set for search jobs
	Err    error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs against an engine.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing jobs.
type InMemoryWorker struct {
	queue   Queue
	engine  blast.Engine
	results chan<- Result
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, engine blast.Engine, results chan<- Result, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		engine:   engine,
		results:  results,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			metrics.UpdateQueueSize(len(jobs))
			w.publish(ctx, w.process(ctx, job))
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs a single job. Errors travel in the Result.
func (w *InMemoryWorker) process(ctx context.Context, job Job) Result { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	metrics.AddWorkersBusy(1)
	defer metrics.AddWorkersBusy(-1)

	start := time.Now()
	res := Result{JobID: job.ID, Kind: job.Kind}

	switch job.Kind {
	case queue.KindIndex:
		res.Index, res.Err = w.engine.BuildIndex(ctx, job.Index)
	case queue.KindSearch:
		res.Output, res.Err = w.engine.Search(ctx, job.Search)
	default:
		res.Err = fmt.Errorf("unknown job kind %q", job.Kind)
	}

	metrics.RecordJobLatency(time.Since(start).Seconds())
	outcome := "ok"
	if res.Err != nil {
		outcome = "error"
		w.logger.Error(ctx, "job failed",
			logger.String("job_id", job.ID),
			logger.String("kind", string(job.Kind)),
			logger.Error(res.Err),
		)
	}
	metrics.RecordJobProcessed(string(job.Kind), outcome)
	return res
}

func (w *InMemoryWorker) publish(ctx context.Context, res Result) {
	select {
	case w.results <- res:
	case <-ctx.Done():
	}
}

// Pool manages multiple workers sharing one results channel.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	results chan Result

	logger logger.Logger
}

// NewPool creates a new worker pool. Results is buffered to resultBuffer so
// workers never block on a slow collector.
func NewPool(workerCount int, q Queue, engine blast.Engine, resultBuffer int) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	if resultBuffer < workerCount {
		resultBuffer = workerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		results: make(chan Result, resultBuffer),
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			engine,
			pool.results,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	return pool
}

// Results returns the channel workers publish to.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d shutdown: %w", i, shutdownCtx.Err())
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return nil
}
