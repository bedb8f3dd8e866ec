package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/logger"
)

// JobRunner processes a single job inside the session it is given.
type JobRunner interface {
	Process(ctx context.Context, session driven.Session, job Job) error
}

// Ensure IngestPipeline can be run by the pool.
var _ JobRunner = (*IngestPipeline)(nil)

// WorkerPool runs ingestion jobs on a fixed number of goroutines.
// Each job gets its own persistence session.
type WorkerPool struct {
	runner   JobRunner
	sessions driven.SessionProvider
	workers  int
	queue    chan Job
	done     chan struct{}

	mu         sync.RWMutex
	closed     bool
	started    bool
	group      *errgroup.Group
	submitters sync.WaitGroup
}

// NewWorkerPool creates a pool of workers consuming a queue of queueSize jobs.
func NewWorkerPool(runner JobRunner, sessions driven.SessionProvider, workers, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = domain.DefaultWorkers
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &WorkerPool{
		runner:   runner,
		sessions: sessions,
		workers:  workers,
		queue:    make(chan Job, queueSize),
		done:     make(chan struct{}),
	}
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Start launches the workers. Once ctx is cancelled the workers stop taking
// jobs, and Stop records whatever is still queued as failed.
// Calling Start more than once has no effect.
func (p *WorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		id := i
		g.Go(func() error {
			p.work(gctx, id)
			return nil
		})
	}
	p.group = g
}

// Submit queues job, blocking until there is room, ctx is done or the pool
// is stopped.
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return domain.ErrQueueClosed
	}
	p.submitters.Add(1)
	p.mu.RUnlock()
	defer p.submitters.Done()

	select {
	case p.queue <- job:
		return nil
	case <-p.done:
		return domain.ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits for queued and in-flight jobs to finish.
// Jobs the workers never picked up are marked failed.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	group := p.group
	p.mu.Unlock()

	// No sender can reach the queue after this.
	p.submitters.Wait()
	close(p.queue)

	if group != nil {
		_ = group.Wait()
	}
	for job := range p.queue {
		p.abandon(context.Background(), job, errors.New("ingestion stopped before the job ran"))
	}
}

func (p *WorkerPool) work(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			p.runJob(ctx, id, job)
		}
	}
}

func (p *WorkerPool) runJob(ctx context.Context, worker int, job Job) {
	session, err := p.sessions.Open(ctx)
	if err != nil {
		logger.Error("worker %d: open session for %s: %v", worker, job.DocumentID, err)
		p.abandon(ctx, job, fmt.Errorf("open session: %w", err))
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("worker %d: close session: %v", worker, err)
		}
	}()

	logger.Info("worker %d: processing %s", worker, job.DocumentID)
	if err := p.runner.Process(ctx, session, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("worker %d: %s cancelled", worker, job.DocumentID)
			return
		}
		logger.Info("worker %d: %s failed: %v", worker, job.DocumentID, err)
		return
	}
	logger.Info("worker %d: %s completed", worker, job.DocumentID)
}

// abandon records a job that will never run, in a fresh session.
func (p *WorkerPool) abandon(ctx context.Context, job Job, cause error) {
	ctx = context.WithoutCancel(ctx)
	err := withSession(ctx, p.sessions, func(sess driven.Session) error {
		return failJob(ctx, sess, job, cause.Error())
	})
	if err != nil {
		logger.Error("record failure for %s: %v", job.DocumentID, err)
	}
}

// failJob marks the job's document failed and closes its pending run, if
// any, as failed with message. A missing document or run is not an error.
func failJob(ctx context.Context, sess driven.Session, job Job, message string) error {
	var errs []error
	if err := sess.Documents().UpdateStatus(ctx, job.DocumentID, domain.DocumentFailed, nil); err != nil &&
		!errors.Is(err, domain.ErrNotFound) {
		errs = append(errs, fmt.Errorf("mark document failed: %w", err))
	}
	if job.ProcessLogID == "" {
		return errors.Join(errs...)
	}

	record, err := sess.ProcessLogs().GetProcessLog(ctx, job.ProcessLogID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		errs = append(errs, fmt.Errorf("load process log: %w", err))
	default:
		if err := AttachProcessTracker(sess.ProcessLogs(), record).Fail(ctx, message, ""); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
