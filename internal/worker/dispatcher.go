// Package worker runs location assessments on a fixed pool of goroutines.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/sitescout/internal/types"
)

// DefaultWorkers is the pool size used when Config.Workers is not positive.
const DefaultWorkers = 4

// Assessor is the interface for location assessment.
// This matches the signature of assess.Adapter.Assess.
type Assessor interface {
	Assess(ctx context.Context, c types.Coordinate) types.Assessment
}

// Job asks for the assessment of one point.
type Job struct {
	PointID    types.PointID
	Coordinate types.Coordinate
}

// Result is the outcome of a job. Assessments cannot fail, so there is no
// error field.
type Result struct {
	Job        Job
	Assessment types.Assessment
	Elapsed    time.Duration
}

// ResultFunc receives each completed job. It runs on a worker goroutine.
type ResultFunc func(Result)

// ProgressFunc is called after each job completes.
type ProgressFunc func(completed, submitted int)

// Config configures the dispatcher.
type Config struct {
	Workers    int
	QueueSize  int // default: 4 * Workers
	Assessor   Assessor
	OnResult   ResultFunc
	OnProgress ProgressFunc
	Logger     *slog.Logger
}

// Stats is a point-in-time view of the dispatcher.
type Stats struct {
	Active    int `json:"active"`
	Queued    int `json:"queued"`
	Submitted int `json:"submitted"`
	Completed int `json:"completed"`
}

// Dispatcher fans assessment jobs out to workers. Submit never blocks: once
// the queue is full, jobs run on their own goroutine.
type Dispatcher struct {
	workers    int
	assessor   Assessor
	onResult   ResultFunc
	onProgress ProgressFunc
	logger     *slog.Logger

	queue chan Job
	wg    sync.WaitGroup

	mu      sync.Mutex
	ctx     context.Context
	started bool
	stopped bool

	active    atomic.Int64
	submitted atomic.Int64
	completed atomic.Int64
}

// New creates a new dispatcher. Call Start before or after submitting jobs.
func New(cfg Config) *Dispatcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 4 * workers
	}

	return &Dispatcher{
		workers:    workers,
		assessor:   cfg.Assessor,
		onResult:   cfg.OnResult,
		onProgress: cfg.OnProgress,
		logger:     cfg.Logger,
		queue:      make(chan Job, queueSize),
		ctx:        context.Background(),
	}
}

// Start launches the workers. ctx is passed to every assessment; cancelling
// it makes the adapter fall back instead of waiting on the remote provider.
// Calling Start more than once has no effect.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.stopped {
		return
	}
	d.started = true
	d.ctx = ctx

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.worker()
		}()
	}

	d.log().Debug("assessment dispatcher started", "workers", d.workers, "queue", cap(d.queue))
}

// Submit enqueues a job. It reports false if the dispatcher is stopped.
func (d *Dispatcher) Submit(job Job) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		d.log().Warn("job submitted to stopped dispatcher", "point", job.PointID)
		return false
	}

	d.submitted.Add(1)
	select {
	case d.queue <- job:
	default:
		// Queue full, run it outside the pool
		d.log().Debug("assessment queue full, spilling job", "point", job.PointID)
		d.wg.Add(1)
		go func(ctx context.Context) {
			defer d.wg.Done()
			d.run(ctx, job)
		}(d.ctx)
	}
	return true
}

// Stop stops accepting jobs and waits until every accepted job has been
// handed to OnResult. Jobs still queued on a dispatcher that was never
// started are processed before Stop returns.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		d.wg.Wait()
		return
	}
	d.stopped = true
	close(d.queue)
	if !d.started {
		d.started = true
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.worker()
		}()
	}
	d.mu.Unlock()

	d.wg.Wait()
	d.log().Debug("assessment dispatcher stopped", "completed", d.completed.Load())
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Active:    int(d.active.Load()),
		Queued:    len(d.queue),
		Submitted: int(d.submitted.Load()),
		Completed: int(d.completed.Load()),
	}
}

// worker processes jobs from the queue until it is closed.
func (d *Dispatcher) worker() {
	d.mu.Lock()
	ctx := d.ctx
	d.mu.Unlock()

	for job := range d.queue {
		d.run(ctx, job)
	}
}

func (d *Dispatcher) run(ctx context.Context, job Job) {
	d.active.Add(1)
	start := time.Now()
	assessment := d.assessor.Assess(ctx, job.Coordinate)
	elapsed := time.Since(start)
	d.active.Add(-1)

	if d.onResult != nil {
		d.onResult(Result{Job: job, Assessment: assessment, Elapsed: elapsed})
	}

	completed := d.completed.Add(1)
	if d.onProgress != nil {
		d.onProgress(int(completed), int(d.submitted.Load()))
	}
}

func (d *Dispatcher) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}
