// Package worker runs the recurring payment processor on a cron schedule.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"finanse/internal/log"
	"finanse/internal/services"
)

// Processor posts due recurring payments. *services.RecurringProcessor satisfies it.
type Processor interface {
	ProcessDue(ctx context.Context, now time.Time) (services.ProcessResult, error)
}

// RecurringWorker triggers the processor on a standard five-field cron schedule.
// Runs never overlap.
type RecurringWorker struct {
	cron      *cron.Cron
	processor Processor
	logger    *log.Logger
	now       func() time.Time

	mu      sync.Mutex
	ctx     context.Context
	running sync.Mutex
}

func NewRecurringWorker(processor Processor, logger *log.Logger) *RecurringWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RecurringWorker{
		cron:      cron.New(),
		processor: processor,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       time.Now,
		ctx:       context.Background(),
	}
}

// Schedule registers the processing job. Schedule examples:
//   - "0 6 * * *"   - every day at 6 AM
//   - "@hourly"     - every hour
//   - "@every 30m"  - every 30 minutes
func (w *RecurringWorker) Schedule(spec string) error {
	if _, err := w.cron.AddFunc(spec, w.tick); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	w.logger.Info("Recurring job registered", "schedule", spec)
	return nil
}

func (w *RecurringWorker) tick() {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if _, err := w.RunNow(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Periodic processing failed", log.FieldError, err)
	}
}

// RunNow processes due payments immediately, outside the schedule.
func (w *RecurringWorker) RunNow(ctx context.Context) (services.ProcessResult, error) {
	w.running.Lock()
	defer w.running.Unlock()

	now := w.now()
	res, err := w.processor.ProcessDue(ctx, now)
	if err != nil {
		return res, err
	}
	w.logger.InfoContext(ctx, "Processing complete",
		"posted", res.Posted,
		"checked", res.Checked,
		"skipped", res.Skipped)
	return res, nil
}

// Start runs the scheduler in the background until Stop. Jobs receive ctx.
func (w *RecurringWorker) Start(ctx context.Context) {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()
	w.cron.Start()
	w.logger.InfoContext(ctx, "Scheduler started", log.FieldOperation, log.OpStartup)
}

// Stop stops the scheduler and waits for a running job to finish.
func (w *RecurringWorker) Stop() {
	<-w.cron.Stop().Done()
	w.logger.Info("Scheduler stopped", log.FieldOperation, log.OpShutdown)
}

// Next returns the next scheduled run, or the zero time when nothing is scheduled.
func (w *RecurringWorker) Next() time.Time {
	entries := w.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	next := entries[0].Next
	for _, e := range entries[1:] {
		if e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}
