package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"finanse/internal/backend"
	"finanse/internal/cli"
	"finanse/internal/config"
	"finanse/internal/core"
	"finanse/internal/storage"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show income, expenses and balance of the filtered transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			filtered := applyFilters(cmd, app.Ledger)
			view := app.Ledger.View()
			s := view.Summary

			cards := lipgloss.JoinHorizontal(lipgloss.Top,
				cli.BoxStyle.Render("Przychody\n"+cli.IncomeStyle.Render(cli.FormatPLN(s.Income))),
				cli.BoxStyle.Render("Wydatki\n"+cli.ExpenseStyle.Render(cli.FormatPLN(s.Expenses))),
				cli.BoxStyle.Render("Saldo\n"+cli.FormatBalance(s.Balance)),
			)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cards)
			scope := "wszystkie"
			if filtered {
				scope = describeFilters(view.Filters)
			}
			fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("%d transakcji (%s)", len(view.Filtered), scope)))
			return nil
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func describeFilters(f core.Filters) string {
	desc := fmt.Sprintf("kategoria: %s, typ: %s, okres: %s", f.Category, f.Type, f.DateRange)
	if f.Search != "" {
		desc += fmt.Sprintf(", szukaj: %q", f.Search)
	}
	return desc
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show spending by category and the monthly trend",
		RunE:  runStats,
	}
	addFilterFlags(cmd)
	cmd.Flags().Int("months", 0, "number of months in the trend (default from config)")
	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	app, closeApp, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp()

	applyFilters(cmd, app.Ledger)
	view := app.Ledger.View()
	out := cmd.OutOrStdout()

	if len(view.Filtered) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("Brak danych do wyświetlenia."))
		return nil
	}

	if err := printCategoryBreakdown(cmd, "Wydatki według kategorii", core.SpendingByCategory(view.Filtered, core.Expense), view.Summary.Expenses); err != nil {
		return err
	}
	if err := printCategoryBreakdown(cmd, "Przychody według kategorii", core.SpendingByCategory(view.Filtered, core.Income), view.Summary.Income); err != nil {
		return err
	}

	months, _ := cmd.Flags().GetInt("months")
	if months <= 0 {
		months = app.Config.TrendMonths
	}
	trend := core.MonthlyTrend(view.Filtered, months)
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Trend miesięczny (ostatnie %d)", months)))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n",
		cli.TableHeaderStyle.Render("Miesiąc"),
		cli.TableHeaderStyle.Render("Przychody"),
		cli.TableHeaderStyle.Render("Wydatki"))
	for _, m := range trend {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Label(),
			cli.IncomeStyle.Render(cli.FormatPLN(m.Income)),
			cli.ExpenseStyle.Render(cli.FormatPLN(m.Expenses)))
	}
	return w.Flush()
}

func printCategoryBreakdown(cmd *cobra.Command, title string, amounts []core.CategoryAmount, total core.Money) error {
	if len(amounts) == 0 {
		return nil
	}
	sorted := append([]core.CategoryAmount(nil), amounts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Amount.Cents > sorted[j].Amount.Cents })

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(title))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, a := range sorted {
		var pct float64
		if total.Cents > 0 {
			pct = a.Amount.Float() / total.Float() * 100
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Name, cli.FormatPLN(a.Amount), cli.ProgressBar(pct, 20), cli.FormatPercent(pct))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	fmt.Fprintln(out)
	return nil
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the available categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle("Wydatki"))
			for _, c := range core.ExpenseCategories {
				fmt.Fprintln(out, "  "+c)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.FormatTitle("Przychody"))
			for _, c := range core.IncomeCategories {
				fmt.Fprintln(out, "  "+c)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "finanse %s\n", version)
			if line := schemaLine(cfgFile); line != "" {
				fmt.Fprintln(out, line)
			}
		},
	}
}

// schemaLine describes the migration version of the configured SQLite
// database. It is empty for other backends or an unreadable config.
func schemaLine(configFile string) string {
	cfg, err := config.Load(configFile)
	if err != nil || cfg.DataBackend != string(backend.SQLiteBackend) {
		return ""
	}
	if _, err := os.Stat(cfg.SQLiteDBPath); err != nil {
		return fmt.Sprintf("schemat bazy: brak bazy danych (%s)", cfg.SQLiteDBPath)
	}
	v, dirty, err := storage.SchemaVersion(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Sprintf("schemat bazy: błąd odczytu (%v)", err)
	}
	line := fmt.Sprintf("schemat bazy: v%d (%s)", v, cfg.SQLiteDBPath)
	if dirty {
		line += " niedokończona migracja"
	}
	return line
}
