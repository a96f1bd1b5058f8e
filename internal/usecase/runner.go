package usecase

import (
	"context"
	"log/slog"
	"sync"

	"AdmitScanner/internal/ports"
)

// Runner owns the gate and executes pipeline runs in the background. The
// triggering layer gets an immediate started/busy answer; run outcomes go
// to the log (and the optional notifier), never back to the trigger call.
type Runner struct {
	pipeline *Pipeline
	gate     *Gate
	notifier ports.Notifier
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewRunner wires the pipeline behind its gate.
func NewRunner(pipeline *Pipeline, gate *Gate, notifier ports.Notifier, logger *slog.Logger) *Runner {
	if gate == nil {
		gate = NewGate()
	}
	return &Runner{
		pipeline: pipeline,
		gate:     gate,
		notifier: notifier,
		logger:   logger,
	}
}

// TryStart begins a background run if no run is in flight and reports
// whether it started. The gate is released when the run ends, whether it
// succeeded or failed.
func (r *Runner) TryStart(ctx context.Context) bool {
	if !r.gate.TryAcquire() {
		return false
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.gate.Release()

		summary, err := r.pipeline.Run(ctx)
		if err != nil {
			r.error("pipeline failed", "error", err)
			return
		}

		r.info("pipeline finished", "message", summary.Message)

		if r.notifier != nil {
			if err := r.notifier.PublishSummary(ctx, summary); err != nil {
				r.error("publish run summary", "error", err)
			}
		}
	}()

	return true
}

// Busy reports whether a run currently holds the gate.
func (r *Runner) Busy() bool {
	return r.gate.Busy()
}

// Wait blocks until any in-flight run finishes; used on shutdown.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) info(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Runner) error(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Error(msg, args...)
	}
}
