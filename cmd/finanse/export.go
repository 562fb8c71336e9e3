package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finanse/internal/cli"
	"finanse/internal/export"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions to CSV and/or JSON files",
		Long: `Write the transactions of the selected period to files named
wydatki_YYYY-MM-DD.csv and wydatki_backup_YYYY-MM-DD.json.

The CSV file uses a semicolon separator, a decimal comma and a UTF-8 BOM so
that spreadsheet programs open it correctly.`,
		RunE: runExport,
	}
	cmd.Flags().StringSliceP("format", "f", []string{"csv"}, "formats to write: csv, json")
	cmd.Flags().StringP("range", "r", string(export.RangeAll), "period: all, month, quarter, year")
	cmd.Flags().String("dir", "", "output directory (default from config)")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	formatNames, _ := cmd.Flags().GetStringSlice("format")
	rangeStr, _ := cmd.Flags().GetString("range")
	dir, _ := cmd.Flags().GetString("dir")

	r, err := export.ParseRange(rangeStr)
	if err != nil {
		return err
	}
	formats := make([]export.Format, 0, len(formatNames))
	seen := make(map[export.Format]bool)
	for _, name := range formatNames {
		f, err := export.ParseFormat(name)
		if err != nil {
			return err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}

	app, closeApp, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp()

	if dir == "" {
		dir = app.Config.ExportDir
	}

	paths, err := export.WriteFiles(cmd.Context(), dir, formats, app.Ledger.Transactions(), r, time.Now(), app.Logger)
	if errors.Is(err, export.ErrNothingToExport) {
		return errors.New("Brak danych do eksportu w wybranym okresie")
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range paths {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s (%s)", p, r.Label())))
	}
	return nil
}
