// Package workers provides a bounded worker pool for concurrent probe
// execution. It supports job queuing, rate limiting and graceful shutdown,
// and integrates with the structured logging system.
package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/lansweep/lansweep/internal/errors"
	"github.com/lansweep/lansweep/internal/logging"
)

// Job represents a unit of work to be executed by a worker.
type Job interface {
	// Execute performs the job and returns an error if it fails.
	Execute(ctx context.Context) error
	// ID returns a unique identifier for the job.
	ID() string
	// Type returns the job type for logging.
	Type() string
}

// Result represents the result of executing a job.
type Result struct {
	JobID    string
	JobType  string
	Error    error
	Duration time.Duration
	Retries  int
}

// Config holds configuration for the worker pool.
type Config struct {
	// Size is the number of worker goroutines to create.
	Size int
	// QueueSize is the maximum number of jobs that can be queued.
	QueueSize int
	// MaxRetries is the maximum number of retries for failed jobs.
	// Probes default to zero; a silent host is not a failure.
	MaxRetries int
	// RetryDelay is the delay between retries.
	RetryDelay time.Duration
	// ShutdownTimeout is the maximum time to wait for workers to finish.
	ShutdownTimeout time.Duration
	// RateLimit is the maximum number of jobs per second (0 = no limit).
	RateLimit int
}

// DefaultConfig returns a default worker pool configuration.
func DefaultConfig() Config {
	return Config{
		Size:            64,
		QueueSize:       256,
		MaxRetries:      0,
		RetryDelay:      time.Second,
		ShutdownTimeout: 30 * time.Second,
		RateLimit:       0,
	}
}

// Pool manages a pool of worker goroutines for concurrent job execution.
type Pool struct {
	config          Config
	jobs            chan Job
	results         chan Result
	externalResults chan Result
	workers         []*worker
	wg              sync.WaitGroup
	ctx             context.Context
	cancel          context.CancelFunc
	shutdown        chan struct{}
	done            chan struct{}
	rateLimiter     *time.Ticker
	startOnce       sync.Once
	closeOnce       sync.Once
	shutdown32      int32 // atomic shutdown flag
}

// worker represents a single worker goroutine.
type worker struct {
	id   int
	pool *Pool
}

// New creates a new worker pool with the given configuration.
func New(config Config) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		config:          config,
		jobs:            make(chan Job, config.QueueSize),
		results:         make(chan Result, config.QueueSize),
		externalResults: make(chan Result, config.QueueSize),
		workers:         make([]*worker, config.Size),
		ctx:             ctx,
		cancel:          cancel,
		shutdown:        make(chan struct{}),
		done:            make(chan struct{}),
	}

	if config.RateLimit > 0 {
		interval := time.Second / time.Duration(config.RateLimit)
		pool.rateLimiter = time.NewTicker(interval)
	}

	for i := 0; i < config.Size; i++ {
		pool.workers[i] = &worker{
			id:   i,
			pool: pool,
		}
	}

	return pool
}

// Start begins the worker pool operations.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		logging.Debug("Starting worker pool",
			"worker_count", p.config.Size,
			"queue_size", p.config.QueueSize,
			"rate_limit", p.config.RateLimit)

		for _, w := range p.workers {
			p.wg.Add(1)
			go w.run()
		}

		go p.processResults()
	})
}

// Submit adds a job to the worker pool queue.
func (p *Pool) Submit(job Job) error {
	if atomic.LoadInt32(&p.shutdown32) == 1 {
		return apperrors.NewScanError(apperrors.CodePoolExhausted, "Worker pool is shut down")
	}

	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return apperrors.NewScanError(apperrors.CodeCanceled, "Worker pool is shutting down")
	default:
		return apperrors.ErrPoolExhausted()
	}
}

// SubmitWait adds a job to the queue, blocking until there is room or the
// given context is cancelled. Used by the scanner to apply backpressure
// instead of failing on a full queue.
func (p *Pool) SubmitWait(ctx context.Context, job Job) error {
	if atomic.LoadInt32(&p.shutdown32) == 1 {
		return apperrors.NewScanError(apperrors.CodePoolExhausted, "Worker pool is shut down")
	}

	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return apperrors.NewScanError(apperrors.CodeCanceled, "Submission cancelled")
	case <-p.ctx.Done():
		return apperrors.NewScanError(apperrors.CodeCanceled, "Worker pool is shutting down")
	}
}

// Results returns a channel for receiving job results.
func (p *Pool) Results() <-chan Result {
	return p.externalResults
}

// Shutdown gracefully shuts down the worker pool.
func (p *Pool) Shutdown() error {
	if !atomic.CompareAndSwapInt32(&p.shutdown32, 0, 1) {
		// Already shut down
		return nil
	}

	logging.Debug("Shutting down worker pool")

	// Cancel context first to prevent new submissions
	p.cancel()

	close(p.shutdown)
	close(p.jobs)

	// processResults exits on the cancelled context while workers may still
	// be sending to the buffered results channel. Keep draining it so no
	// worker blocks on a send and the wait below can settle.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range p.results {
		}
	}()

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Debug("Worker pool shutdown completed")
	case <-time.After(p.config.ShutdownTimeout):
		logging.Warn("Worker pool shutdown timeout, forcing termination")
		<-done
	}

	// Run any jobs still queued with the cancelled context. Their Execute
	// returns immediately but completion callbacks in the jobs still fire,
	// so submitters waiting on job accounting are released.
	for job := range p.jobs {
		_ = job.Execute(p.ctx)
	}

	// Give processResults a moment to exit cleanly
	time.Sleep(10 * time.Millisecond)

	close(p.results)
	<-drained
	close(p.externalResults)

	if p.rateLimiter != nil {
		p.rateLimiter.Stop()
	}

	return nil
}

// Wait waits for the result processor to drain and the pool to shut down.
func (p *Pool) Wait() {
	<-p.done
}

// worker.run executes the worker loop.
func (w *worker) run() {
	defer w.pool.wg.Done()

	for {
		select {
		case job, ok := <-w.pool.jobs:
			if !ok {
				return
			}
			w.executeJob(job)

		case <-w.pool.shutdown:
			return

		case <-w.pool.ctx.Done():
			return
		}
	}
}

// executeJob executes a single job with retry logic.
func (w *worker) executeJob(job Job) {
	// Apply rate limiting if configured
	if w.pool.rateLimiter != nil {
		select {
		case <-w.pool.rateLimiter.C:
		case <-w.pool.ctx.Done():
			return
		}
	}

	var lastErr error
	var retries int

	for attempt := 0; attempt <= w.pool.config.MaxRetries; attempt++ {
		start := time.Now()

		jobCtx, cancel := context.WithCancel(w.pool.ctx)
		err := job.Execute(jobCtx)
		cancel()

		duration := time.Since(start)

		if err == nil {
			w.pool.results <- Result{
				JobID:    job.ID(),
				JobType:  job.Type(),
				Duration: duration,
				Retries:  retries,
			}
			return
		}

		lastErr = err
		retries = attempt

		if attempt < w.pool.config.MaxRetries {
			logging.Debug("Job failed, retrying",
				"job_id", job.ID(),
				"job_type", job.Type(),
				"attempt", attempt+1,
				"max_retries", w.pool.config.MaxRetries,
				"error", err)

			select {
			case <-time.After(w.pool.config.RetryDelay):
			case <-w.pool.ctx.Done():
				return
			}
		}
	}

	w.pool.results <- Result{
		JobID:   job.ID(),
		JobType: job.Type(),
		Error:   lastErr,
		Retries: retries,
	}

	logging.Debug("Job failed after retries",
		"job_id", job.ID(),
		"job_type", job.Type(),
		"retries", retries,
		"error", lastErr,
		"worker_id", w.id)
}

// processResults fans results out to external consumers.
func (p *Pool) processResults() {
	defer p.closeOnce.Do(func() {
		close(p.done)
	})

	for {
		select {
		case result, ok := <-p.results:
			if !ok {
				return
			}

			select {
			case p.externalResults <- result:
			case <-p.ctx.Done():
				return
			default:
				// External consumer not reading; drop rather than block workers.
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// ProbeJob implements Job for per-host probe operations.
type ProbeJob struct {
	id       string
	target   string
	method   string
	executor func(ctx context.Context, target string) error
}

// NewProbeJob creates a probe job for one host address.
func NewProbeJob(id, target, method string,
	executor func(ctx context.Context, target string) error) *ProbeJob {
	return &ProbeJob{
		id:       id,
		target:   target,
		method:   method,
		executor: executor,
	}
}

// Execute implements the Job interface.
func (j *ProbeJob) Execute(ctx context.Context) error {
	return j.executor(ctx, j.target)
}

// ID implements the Job interface.
func (j *ProbeJob) ID() string {
	return j.id
}

// Type implements the Job interface.
func (j *ProbeJob) Type() string {
	return "probe:" + j.method
}

// Target returns the host address this job probes.
func (j *ProbeJob) Target() string {
	return j.target
}
