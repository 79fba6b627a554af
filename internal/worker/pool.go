package worker

import (
	"context"
	"sync"

	"github.com/osse101/realmkeeper/internal/logger"
)

// Job represents a task to be executed by a worker
type Job interface {
	Process(ctx context.Context) error
}

// JobFunc adapts a plain function to the Job interface
type JobFunc func(ctx context.Context) error

// Process calls f(ctx)
func (f JobFunc) Process(ctx context.Context) error {
	return f(ctx)
}

// Pool represents a worker pool
type Pool struct {
	workers  int
	jobQueue chan Job
	wg       sync.WaitGroup
	quit     chan struct{}
	stopOnce sync.Once
}

// NewPool creates a new worker pool
func NewPool(workers int, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, queueSize),
		quit:     make(chan struct{}),
	}
}

// Start starts the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker is the worker loop. On stop it finishes whatever is still queued.
func (p *Pool) worker() {
	defer p.wg.Done()
	ctx := context.Background()
	for {
		select {
		case job := <-p.jobQueue:
			p.run(ctx, job)
		case <-p.quit:
			for {
				select {
				case job := <-p.jobQueue:
					p.run(ctx, job)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) run(ctx context.Context, job Job) {
	if err := job.Process(ctx); err != nil {
		logger.FromContext(ctx).Error(LogMsgWorkerJobFailed, "error", err)
	}
}

// Enqueue adds a job to the queue, blocking while the queue is full.
// It returns false once the pool has been stopped.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case <-p.quit:
		return false
	default:
	}

	select {
	case p.jobQueue <- job:
		return true
	case <-p.quit:
		return false
	}
}

// Stop stops accepting jobs, drains the queue and waits for workers to finish
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		logger.Debug(LogMsgPoolDrainingJobs, "queued", len(p.jobQueue))
		close(p.quit)
	})
	p.wg.Wait()
}
