package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"finanse/internal/backend"
	"finanse/internal/config"
	"finanse/internal/ledger"
	"finanse/internal/log"
	"finanse/internal/planner"
	"finanse/internal/services"
)

// App wires the configured store to the ledger, the planner books and the
// recurring processor. Close releases the backend.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Ledger    *ledger.Store
	Budgets   *planner.Budgets
	Goals     *planner.Goals
	Recurring *planner.Recurring
	Processor *services.RecurringProcessor

	backend *backend.BackendResult
}

// Open builds an App on cfg. Ledger events are printed to notify when it is
// non-nil and logged otherwise.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger, notify io.Writer) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = SetupLogger(cfg)
	}

	be, err := OpenBackend(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger, backend: be}

	opts := []ledger.Option{ledger.WithLogger(logger)}
	if notify != nil {
		opts = append(opts, ledger.WithNotifier(ConsoleNotifier{Out: notify}))
	}
	if app.Ledger, err = ledger.New(ctx, be.Store, opts...); err != nil {
		return nil, app.closeWith(fmt.Errorf("open ledger: %w", err))
	}

	popts := []planner.Option{planner.WithLogger(logger)}
	if app.Budgets, err = planner.NewBudgets(ctx, be.Store, popts...); err != nil {
		return nil, app.closeWith(fmt.Errorf("open budgets: %w", err))
	}
	if app.Goals, err = planner.NewGoals(ctx, be.Store, popts...); err != nil {
		return nil, app.closeWith(fmt.Errorf("open goals: %w", err))
	}
	if app.Recurring, err = planner.NewRecurring(ctx, be.Store, popts...); err != nil {
		return nil, app.closeWith(fmt.Errorf("open recurring payments: %w", err))
	}
	app.Processor = services.NewRecurringProcessor(app.Ledger, app.Recurring, logger)
	return app, nil
}

func (a *App) closeWith(err error) error {
	if cerr := a.Close(); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

// Close releases the backend.
func (a *App) Close() error {
	return a.backend.Close()
}
