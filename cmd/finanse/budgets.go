package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"finanse/internal/cli"
	"finanse/internal/core"
	"finanse/internal/planner"
)

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage category budgets",
	}
	cmd.AddCommand(budgetAddCmd())
	cmd.AddCommand(budgetListCmd())
	cmd.AddCommand(budgetDeleteCmd())
	return cmd
}

func budgetAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <category> <amount>",
		Short:   "Set a spending limit for an expense category",
		Example: "  finanse budget add Jedzenie 1200",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, _ := cmd.Flags().GetString("period")
			if err := checkCategory(core.Expense, args[0]); err != nil {
				return err
			}
			amount, err := core.ParseMoney(args[1])
			if err != nil {
				return errors.New("Proszę wpisać prawidłową kwotę budżetu")
			}

			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			_, err = app.Budgets.Add(cmd.Context(), args[0], amount, core.BudgetPeriod(period))
			if errors.Is(err, planner.ErrBudgetExists) {
				return errors.New("Budżet dla tej kategorii już istnieje")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Budżet dodany pomyślnie!"))
			return nil
		},
	}
	cmd.Flags().String("period", string(core.PeriodMonthly), "monthly or weekly")
	return cmd
}

func budgetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show budgets and how much of each is spent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			out := cmd.OutOrStdout()
			progress, overview := app.Budgets.Progress(app.Ledger.Transactions())
			if len(progress) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("Brak budżetów. Dodaj: finanse budget add <kategoria> <kwota>"))
				return nil
			}

			fmt.Fprintln(out, cli.FormatTitle("Budżety"))
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, p := range progress {
				status := cli.SuccessStyle.Render("w normie")
				if p.OverBudget {
					status = cli.ErrorStyle.Render("przekroczono o " + cli.FormatPLN(p.OverBy))
				}
				fmt.Fprintf(w, "%s\t%s\t%s / %s\t%s %s\t%s\n",
					shortID(p.Budget.ID),
					p.Budget.Category,
					cli.FormatPLN(p.Spent),
					cli.FormatPLN(p.Budget.Amount),
					cli.ProgressBar(p.DisplayPercentage(), 20),
					cli.FormatPercent(p.Percentage),
					status)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to write table: %w", err)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Aktywne: %d  W normie: %d  Przekroczone: %d  Łącznie ponad budżet: %s\n",
				overview.Active, overview.WithinBudget, overview.Exceeded, cli.FormatPLN(overview.TotalOverBy))
			return nil
		},
	}
}

func budgetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			var ids []string
			for _, b := range app.Budgets.List() {
				ids = append(ids, b.ID)
			}
			id, err := resolveID(ids, args[0])
			if err != nil {
				return err
			}
			if !app.Budgets.Delete(cmd.Context(), id) {
				return fmt.Errorf("%w: %s", planner.ErrBudgetNotFound, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Budżet usunięty"))
			return nil
		},
	}
}
