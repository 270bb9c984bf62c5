package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner drives the processor on a fixed tick. Runs never overlap: a tick
// arriving while a run is in flight is dropped.
type Runner struct {
	processor *Processor
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	runMu     sync.Mutex
}

func NewRunner(processor *Processor, interval time.Duration) *Runner {
	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		processor: processor,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (r *Runner) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.runOnce()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				r.runOnce()
			}
		}
	}()

	slog.Info("Scheduler started", "interval", r.interval)
}

func (r *Runner) Stop() {
	r.cancel()
	r.wg.Wait()
	slog.Info("Scheduler stopped")
}

// TriggerAll runs all due feeds outside the tick, for the manual API
// trigger. Returns false when a run is already in flight.
func (r *Runner) TriggerAll() bool {
	if !r.runMu.TryLock() {
		return false
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.runMu.Unlock()
		r.processor.ProcessAllFeeds(r.ctx)
	}()

	return true
}

func (r *Runner) runOnce() {
	if !r.runMu.TryLock() {
		slog.Warn("Previous processing run still in flight, skipping tick")
		return
	}
	defer r.runMu.Unlock()

	r.processor.ProcessAllFeeds(r.ctx)
}
