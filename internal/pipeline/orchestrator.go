package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/tocsplit/internal/config"
)

var (
	// ErrQueueFull is returned by Submit when no worker slot is free.
	ErrQueueFull = errors.New("job queue is full")
	// ErrStopped is returned by Submit once the orchestrator is shutting down.
	ErrStopped = errors.New("orchestrator stopped")
)

// Orchestrator runs synchronous conversions and a worker pool for queued
// jobs.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	conv  *Converter
	stats *ConversionStats
	log   *slog.Logger
	cfg   config.Config

	mu      sync.Mutex // guards stopped and the queue close
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewOrchestrator(cfg config.Config, conv *Converter, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		conv:  conv,
		stats: NewConversionStats(time.Hour),
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.conv, o.stats, o.log, o.cfg.RequestTimeout)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline. It is safe to call more than
// once.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.mu.Unlock()
	o.wg.Wait()
}

// Submit queues a new job for processing. Jobs submitted after Stop are
// failed rather than queued.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.Request() // drop the upload
		job.Fail(ErrStopped)
		return ErrStopped
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.Request()
		job.Fail(ErrQueueFull)
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// Convert runs one conversion on the caller's goroutine.
func (o *Orchestrator) Convert(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := o.conv.Convert(ctx, req, nil)
	pages := 0
	if res != nil {
		pages = res.Progress.Pages
	}
	o.stats.Record(time.Since(start), pages, err)
	return res, err
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns conversion statistics for the last hour.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}

// Converter returns the converter shared by the workers.
func (o *Orchestrator) Converter() *Converter {
	return o.conv
}
