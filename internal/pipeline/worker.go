package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Worker processes a single conversion job.
type Worker struct {
	conv    *Converter
	stats   *ConversionStats
	log     *slog.Logger
	timeout time.Duration
}

func NewWorker(conv *Converter, stats *ConversionStats, log *slog.Logger, timeout time.Duration) *Worker {
	return &Worker{
		conv:    conv,
		stats:   stats,
		log:     log,
		timeout: timeout,
	}
}

// Process runs the conversion for a job and stores its result. The upload
// is released as soon as the job starts.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	req := job.Request()
	start := time.Now()
	res, err := w.conv.Convert(ctx, req, func(status JobStatus, p Progress) {
		job.SetStatus(status, string(status))
		job.SetProgress(p)
	})
	pages := 0
	if res != nil {
		pages = res.Progress.Pages
	}
	w.stats.Record(time.Since(start), pages, err)

	if err != nil {
		log.Error("conversion failed", "error", err)
		job.Fail(err)
		return
	}

	job.SetProgress(res.Progress)
	job.SetResult(res.Filename, res.JSON)
	job.SetStatus(StatusCompleted, "done")
	log.Info("conversion complete",
		"nodes", res.Progress.Nodes,
		"warnings", len(res.Warnings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
