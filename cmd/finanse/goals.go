package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finanse/internal/cli"
	"finanse/internal/core"
	"finanse/internal/planner"
)

func goalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage savings goals",
		Long: `Savings goals track income transactions whose description mentions
the goal name. 'goal contribute' records such a transaction for you.`,
	}
	cmd.AddCommand(goalAddCmd())
	cmd.AddCommand(goalListCmd())
	cmd.AddCommand(goalDeleteCmd())
	cmd.AddCommand(goalContributeCmd())
	return cmd
}

func goalAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <name> <target>",
		Short:   "Create a savings goal",
		Example: `  finanse goal add Wakacje 5000 --deadline 2025-07-01`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deadlineStr, _ := cmd.Flags().GetString("deadline")
			color, _ := cmd.Flags().GetString("color")

			target, err := core.ParseMoney(args[1])
			if err != nil {
				return errors.New("Proszę wpisać prawidłową kwotę celu")
			}
			deadline, err := core.ParseDate(deadlineStr)
			if err != nil {
				return errors.New("Proszę wybrać datę celu (YYYY-MM-DD)")
			}

			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			if _, err := app.Goals.Add(cmd.Context(), args[0], target, deadline, color); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Cel oszczędnościowy dodany!"))
			return nil
		},
	}
	cmd.Flags().String("deadline", "", "target date, YYYY-MM-DD")
	cmd.Flags().String("color", core.DefaultGoalColor, "display color")
	_ = cmd.MarkFlagRequired("deadline")
	return cmd
}

func goalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show savings goals and their progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			out := cmd.OutOrStdout()
			progress, overview := app.Goals.Progress(app.Ledger.Transactions(), time.Now())
			if len(progress) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("Brak celów. Dodaj: finanse goal add <nazwa> <kwota> --deadline YYYY-MM-DD"))
				return nil
			}

			fmt.Fprintln(out, cli.FormatTitle("Cele oszczędnościowe"))
			for _, p := range progress {
				fmt.Fprintf(out, "%s  %s  %s / %s\n",
					cli.SubtleStyle.Render(shortID(p.Goal.ID)),
					cli.BoldStyle.Render(p.Goal.Name),
					cli.FormatPLN(p.Saved),
					cli.FormatPLN(p.Goal.Target))
				fmt.Fprintf(out, "    %s %s\n", cli.ProgressBar(p.Percentage, 30), cli.FormatPercent(p.Percentage))

				switch {
				case p.Completed:
					fmt.Fprintln(out, "    "+cli.FormatSuccess("Cel osiągnięty!"))
				case p.Overdue:
					fmt.Fprintln(out, "    "+cli.FormatWarning("Termin minął "+formatDate(p.Goal.Deadline)))
				default:
					fmt.Fprintf(out, "    Pozostało %s, %d dni, %s miesięcznie\n",
						cli.FormatPLN(p.Remaining), p.DaysRemaining, cli.FormatPLN(p.MonthlyNeeded))
				}
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Zaoszczędzono: %s z %s  Osiągnięte cele: %d\n",
				cli.FormatPLN(overview.TotalSaved), cli.FormatPLN(overview.TotalTarget), overview.Completed)
			return nil
		},
	}
}

func goalDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a savings goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			id, err := resolveID(goalIDs(app.Goals.List()), args[0])
			if err != nil {
				return err
			}
			if !app.Goals.Delete(cmd.Context(), id) {
				return fmt.Errorf("%w: %s", planner.ErrGoalNotFound, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Cel usunięty"))
			return nil
		},
	}
}

func goalContributeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contribute <id> <amount>",
		Short: "Record a deposit towards a savings goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseMoney(args[1])
			if err != nil {
				return errors.New("Proszę wpisać prawidłową kwotę")
			}

			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			id, err := resolveID(goalIDs(app.Goals.List()), args[0])
			if err != nil {
				return err
			}
			g, ok := app.Goals.Find(id)
			if !ok {
				return fmt.Errorf("%w: %s", planner.ErrGoalNotFound, args[0])
			}
			in := core.SavingsContribution(g, amount)
			if err := core.ValidateInput(in); err != nil {
				return err
			}
			app.Ledger.Add(cmd.Context(), in)
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Dodano %s do celu %q", cli.FormatPLN(amount), g.Name)))
			return nil
		},
	}
}

func goalIDs(goals []core.Goal) []string {
	ids := make([]string, len(goals))
	for i, g := range goals {
		ids[i] = g.ID
	}
	return ids
}
