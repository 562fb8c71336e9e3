package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"finanse/internal/cli"
	"finanse/internal/config"
	"finanse/internal/log"
)

var (
	cfgFile string
	version = "dev"

	appConfig *config.Config
	appLogger *log.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "finanse",
		Short: "Personal income and expense tracker",
		Long: `finanse records income and expense transactions, shows filtered
summaries and statistics, tracks budgets, savings goals and recurring
payments, and exports data to CSV or JSON.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or $HOME/.config/finanse/config.yaml)")

	root.AddCommand(addCmd())
	root.AddCommand(editCmd())
	root.AddCommand(deleteCmd())
	root.AddCommand(listCmd())
	root.AddCommand(summaryCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(budgetCmd())
	root.AddCommand(goalCmd())
	root.AddCommand(recurringCmd())
	root.AddCommand(categoriesCmd())
	root.AddCommand(versionCmd())
	return root
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(cfgFile)
	if err != nil {
		return err
	}
	appConfig = cfg
	appLogger = cli.SetupLogger(cfg)
	return nil
}

// openApp opens the configured store. Ledger confirmations go to the command output.
func openApp(cmd *cobra.Command) (*cli.App, func(), error) {
	app, err := cli.Open(cmd.Context(), appConfig, appLogger, cmd.OutOrStdout())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open data store: %w", err)
	}
	closeFn := func() {
		if err := app.Close(); err != nil {
			appLogger.Error("Failed to close data store", log.FieldError, err)
		}
	}
	return app, closeFn, nil
}
