package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"finanse/internal/cli"
	"finanse/internal/config"
	"finanse/internal/log"
	"finanse/internal/services"
	"finanse/internal/worker"
)

// freshProcessor opens the data store for every run so each run starts from
// the current data. Writes that race with the CLI are detected through the
// store revision and replayed on top of the CLI's changes.
type freshProcessor struct {
	cfg    *config.Config
	logger *log.Logger
}

func (p freshProcessor) ProcessDue(ctx context.Context, now time.Time) (services.ProcessResult, error) {
	app, err := cli.Open(ctx, p.cfg, p.logger, nil)
	if err != nil {
		return services.ProcessResult{}, fmt.Errorf("open data store: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			p.logger.Error("Failed to close data store", log.FieldError, err)
		}
	}()
	return app.Processor.ProcessDue(ctx, now)
}

func main() {
	configFile := flag.String("config", "", "config file")
	flag.Parse()

	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentWorker)
	logger.Info("Starting recurring-worker",
		log.FieldBackend, cfg.DataBackend,
		"schedule", cfg.RecurringSchedule)

	w := worker.NewRecurringWorker(freshProcessor{cfg: cfg, logger: logger}, logger)
	if err := w.Schedule(cfg.RecurringSchedule); err != nil {
		logger.Error("Invalid recurring schedule", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, w.Stop)

	logger.Info("Running initial recurring payment processing")
	if res, err := w.RunNow(ctx); err != nil {
		logger.Error("Initial processing failed", log.FieldError, err)
	} else {
		logger.Info("Initial processing complete", "posted", res.Posted, "skipped", res.Skipped)
	}

	w.Start(ctx)
	logger.Info("Recurring worker started", "next_run", w.Next().Format(time.DateTime))

	cli.WaitForShutdown(ctx, done)
	logger.Info("Recurring-worker stopped")
}
