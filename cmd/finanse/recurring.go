package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"finanse/internal/cli"
	"finanse/internal/core"
	"finanse/internal/planner"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recurring",
		Aliases: []string{"rec"},
		Short:   "Manage recurring payments",
	}
	cmd.AddCommand(recurringAddCmd())
	cmd.AddCommand(recurringListCmd())
	cmd.AddCommand(recurringEditCmd())
	cmd.AddCommand(recurringDeleteCmd())
	cmd.AddCommand(recurringToggleCmd())
	cmd.AddCommand(recurringPostCmd())
	cmd.AddCommand(recurringProcessCmd())
	cmd.AddCommand(recurringUpcomingCmd())
	return cmd
}

func addPaymentFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("category", "c", "Rachunki", "expense category")
	cmd.Flags().String("frequency", string(core.Monthly), "daily, weekly, monthly, quarterly or yearly")
	cmd.Flags().String("next", "", "next payment date, YYYY-MM-DD")
}

func recurringAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <name> <amount>",
		Short:   "Add a recurring payment",
		Example: `  finanse recurring add Netflix 43 --category Rozrywka --next 2024-04-10`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := paymentFromFlags(cmd, core.RecurringPayment{Name: args[0]}, args[1])
			if err != nil {
				return err
			}

			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			if _, err := app.Recurring.Add(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Cykliczna płatność dodana!"))
			return nil
		},
	}
	addPaymentFlags(cmd)
	_ = cmd.MarkFlagRequired("next")
	return cmd
}

// paymentFromFlags overlays the flags the user set, and amountStr when not empty, on base.
func paymentFromFlags(cmd *cobra.Command, base core.RecurringPayment, amountStr string) (core.RecurringPayment, error) {
	flags := cmd.Flags()
	p := base

	if strings.TrimSpace(p.Name) == "" {
		return p, errors.New("Proszę wpisać nazwę płatności")
	}
	if amountStr != "" {
		amount, err := core.ParseMoney(amountStr)
		if err != nil {
			return p, errors.New("Proszę wpisać prawidłową kwotę")
		}
		p.Amount = amount
	}
	if flags.Changed("category") || p.Category == "" {
		p.Category, _ = flags.GetString("category")
		if err := checkCategory(core.Expense, p.Category); err != nil {
			return p, err
		}
	}
	if flags.Changed("frequency") || p.Frequency == "" {
		f, _ := flags.GetString("frequency")
		p.Frequency = core.Frequency(strings.ToLower(f))
		if !p.Frequency.Valid() {
			return p, fmt.Errorf("%w: %s", core.ErrInvalidFrequency, f)
		}
	}
	if flags.Changed("next") || p.NextDate.IsZero() {
		s, _ := flags.GetString("next")
		d, err := core.ParseDate(s)
		if err != nil {
			return p, errors.New("Proszę wybrać datę kolejnej płatności (YYYY-MM-DD)")
		}
		p.NextDate = d
	}
	return p, nil
}

func recurringListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring payments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			out := cmd.OutOrStdout()
			payments := app.Recurring.List()
			if len(payments) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("Brak cyklicznych płatności."))
				return nil
			}

			now := time.Now()
			active := 0
			fmt.Fprintln(out, cli.FormatTitle("Cykliczne płatności"))
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, p := range payments {
				state := cli.SuccessStyle.Render("aktywna")
				if p.Active {
					active++
				} else {
					state = cli.SubtleStyle.Render("wyłączona")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s (%s)\t%s\n",
					shortID(p.ID),
					p.Name,
					cli.FormatPLN(p.Amount),
					p.Category,
					frequencyLabel(p.Frequency),
					formatDate(p.NextDate),
					daysLabel(core.DaysUntil(p.NextDate, now)),
					state)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to write table: %w", err)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Aktywne: %d  Miesięcznie: %s\n", active, cli.FormatPLN(app.Recurring.TotalMonthly()))
			return nil
		},
	}
}

func recurringEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a recurring payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			id, err := resolveID(paymentIDs(app.Recurring.List()), args[0])
			if err != nil {
				return err
			}
			current, ok := app.Recurring.Find(id)
			if !ok {
				return fmt.Errorf("%w: %s", planner.ErrPaymentNotFound, args[0])
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				current.Name, _ = flags.GetString("name")
			}
			amountStr, _ := flags.GetString("amount")
			updated, err := paymentFromFlags(cmd, current, amountStr)
			if err != nil {
				return err
			}
			if flags.Changed("active") {
				updated.Active, _ = flags.GetBool("active")
			}

			if _, err := app.Recurring.Update(cmd.Context(), updated); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Płatność zaktualizowana!"))
			return nil
		},
	}
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("amount", "", "new amount in PLN")
	cmd.Flags().Bool("active", true, "whether the payment is active")
	addPaymentFlags(cmd)
	return cmd
}

func recurringDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a recurring payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			id, err := resolveID(paymentIDs(app.Recurring.List()), args[0])
			if err != nil {
				return err
			}
			if !app.Recurring.Delete(cmd.Context(), id) {
				return fmt.Errorf("%w: %s", planner.ErrPaymentNotFound, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Płatność usunięta"))
			return nil
		},
	}
}

func recurringToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Switch a recurring payment on or off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			id, err := resolveID(paymentIDs(app.Recurring.List()), args[0])
			if err != nil {
				return err
			}
			active, err := app.Recurring.Toggle(cmd.Context(), id)
			if err != nil {
				return err
			}
			msg := "Płatność wyłączona"
			if active {
				msg = "Płatność włączona"
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
			return nil
		},
	}
}

func recurringPostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <id>",
		Short: "Record one payment now as an expense and move its next date forward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			id, err := resolveID(paymentIDs(app.Recurring.List()), args[0])
			if err != nil {
				return err
			}
			_, p, err := app.Processor.Post(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Dodano płatność: %s (następna: %s)", p.Name, formatDate(p.NextDate))))
			return nil
		},
	}
}

func recurringProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Post every active payment that is due today or earlier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			res, err := app.Processor.ProcessDue(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Zaksięgowano %d płatności (sprawdzono %d)", res.Posted, res.Checked)))
			if res.Skipped > 0 {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Pominięto %d zaległych okresów", res.Skipped)))
			}
			return nil
		},
	}
}

func recurringUpcomingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upcoming",
		Short: "Show active payments due within the next 7 days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			out := cmd.OutOrStdout()
			now := time.Now()
			upcoming := app.Recurring.Upcoming(now)
			if len(upcoming) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("Brak płatności w najbliższym tygodniu."))
				return nil
			}
			fmt.Fprintln(out, cli.FormatTitle("Nadchodzące płatności"))
			for _, p := range upcoming {
				fmt.Fprintf(out, "  %s  %s  %s  %s\n",
					formatDate(p.NextDate), p.Name, cli.FormatPLN(p.Amount), daysLabel(core.DaysUntil(p.NextDate, now)))
			}
			return nil
		},
	}
}

func paymentIDs(payments []core.RecurringPayment) []string {
	ids := make([]string, len(payments))
	for i, p := range payments {
		ids[i] = p.ID
	}
	return ids
}
