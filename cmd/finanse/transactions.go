package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"finanse/internal/cli"
	"finanse/internal/core"
	"finanse/internal/ledger"
)

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Record an income or expense transaction",
		Example: `  finanse add "Obiad" --amount 42,50 --category Jedzenie
  finanse add "Wypłata" --type income --amount 7500 --category Praca`,
		Args: cobra.ExactArgs(1),
		RunE: runAdd,
	}
	cmd.Flags().StringP("type", "t", string(core.Expense), "income or expense")
	cmd.Flags().StringP("amount", "a", "", "amount in PLN, e.g. 12.34 or 12,34")
	cmd.Flags().StringP("category", "c", "", "category (see 'finanse categories')")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	typeStr, _ := cmd.Flags().GetString("type")
	amountStr, _ := cmd.Flags().GetString("amount")
	category, _ := cmd.Flags().GetString("category")

	in, err := parseTransactionInput(args[0], typeStr, amountStr, category)
	if err != nil {
		return err
	}

	app, closeApp, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp()

	t := app.Ledger.Add(cmd.Context(), in)
	fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("id: "+t.ID))
	return nil
}

// parseTransactionInput applies the form-boundary rules to raw CLI values.
func parseTransactionInput(description, typeStr, amountStr, category string) (core.NewTransaction, error) {
	typ, err := core.ParseTransactionType(typeStr)
	if err != nil {
		return core.NewTransaction{}, err
	}
	amount, err := core.ParseMoney(amountStr)
	if err != nil {
		return core.NewTransaction{}, fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}
	in := core.NewTransaction{
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Type:        typ,
		Category:    strings.TrimSpace(category),
	}
	if err := core.ValidateInput(in); err != nil {
		return core.NewTransaction{}, err
	}
	if err := checkCategory(typ, in.Category); err != nil {
		return core.NewTransaction{}, err
	}
	return in, nil
}

func editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an existing transaction",
		Long: `Change the description, amount, type or category of a transaction.
Only the flags you pass are changed; the transaction date is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: runEdit,
	}
	cmd.Flags().StringP("description", "d", "", "new description")
	cmd.Flags().StringP("type", "t", "", "new type: income or expense")
	cmd.Flags().StringP("amount", "a", "", "new amount in PLN")
	cmd.Flags().StringP("category", "c", "", "new category")
	return cmd
}

func runEdit(cmd *cobra.Command, args []string) error {
	app, closeApp, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp()

	id, err := resolveID(transactionIDs(app.Ledger.Transactions()), args[0])
	if err != nil {
		return err
	}
	current, ok := app.Ledger.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ledger.ErrTransactionNotFound, args[0])
	}

	flags := cmd.Flags()
	base := current.Input()
	description, typeStr, amountStr, category := base.Description, string(base.Type), base.Amount.Decimal(), base.Category
	if flags.Changed("description") {
		description, _ = flags.GetString("description")
	}
	if flags.Changed("type") {
		typeStr, _ = flags.GetString("type")
	}
	if flags.Changed("amount") {
		amountStr, _ = flags.GetString("amount")
	}
	if flags.Changed("category") {
		category, _ = flags.GetString("category")
	}

	in, err := parseTransactionInput(description, typeStr, amountStr, category)
	if err != nil {
		return err
	}
	updated := core.Transaction{
		ID:          current.ID,
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    in.Category,
	}
	return app.Ledger.Edit(cmd.Context(), updated)
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a transaction",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, closeApp, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			id, err := resolveID(transactionIDs(app.Ledger.Transactions()), args[0])
			if err != nil {
				return err
			}
			if !app.Ledger.Delete(cmd.Context(), id) {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing to delete: no transaction "+args[0]))
			}
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List transactions, newest first",
		RunE:    runList,
	}
	addFilterFlags(cmd)
	cmd.Flags().IntP("limit", "n", 0, "show at most n transactions (0 = all)")
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	app, closeApp, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp()

	filtered := applyFilters(cmd, app.Ledger)
	view := app.Ledger.View()
	out := cmd.OutOrStdout()

	if len(view.Filtered) == 0 {
		if !filtered || len(view.All) == 0 {
			fmt.Fprintln(out, cli.FormatInfo("Brak transakcji. Dodaj pierwszą: finanse add"))
		} else {
			fmt.Fprintln(out, cli.FormatInfo("Brak transakcji spełniających kryteria."))
		}
		return nil
	}

	txs := view.Filtered
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}

	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Transakcje (%d z %d)", len(view.Filtered), len(view.All))))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		cli.TableHeaderStyle.Render("ID"),
		cli.TableHeaderStyle.Render("Data"),
		cli.TableHeaderStyle.Render("Opis"),
		cli.TableHeaderStyle.Render("Kategoria"),
		cli.TableHeaderStyle.Render("Kwota"))
	for _, t := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID),
			t.Date.Format("02.01.2006 15:04"),
			t.Description,
			t.Category,
			cli.FormatSigned(t.Amount, t.Type))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Saldo: "+cli.FormatBalance(view.Summary.Balance))
	return nil
}

func transactionIDs(txs []core.Transaction) []string {
	ids := make([]string, len(txs))
	for i, t := range txs {
		ids[i] = t.ID
	}
	return ids
}
