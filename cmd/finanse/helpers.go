package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"finanse/internal/core"
	"finanse/internal/ledger"
)

const shortIDLen = 8

// shortID abbreviates an ID for table output.
func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// resolveID matches arg against ids, either exactly or as a unique prefix.
func resolveID(ids []string, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("empty id")
	}
	var matches []string
	for _, id := range ids {
		if id == arg {
			return id, nil
		}
		if strings.HasPrefix(id, arg) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return arg, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", arg, len(matches))
	}
}

// checkCategory rejects categories the given type does not offer.
func checkCategory(t core.TransactionType, category string) error {
	for _, c := range core.CategoriesFor(t) {
		if c == category {
			return nil
		}
	}
	return fmt.Errorf("unknown %s category %q (available: %s)", t, category, strings.Join(core.CategoriesFor(t), ", "))
}

// addFilterFlags registers the derivation filter flags on cmd.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("category", core.All, "category to show, or 'all'")
	cmd.Flags().String("type", core.All, "income, expense or all")
	cmd.Flags().String("range", string(core.RangeAll), "date range: all, today, week, month, year")
	cmd.Flags().String("search", "", "case-insensitive text to find in description or category")
}

// filterPatch turns the filter flags the user actually set into a patch.
func filterPatch(cmd *cobra.Command) core.FilterPatch {
	var p core.FilterPatch
	flags := cmd.Flags()
	if flags.Changed("category") {
		v, _ := flags.GetString("category")
		p.Category = &v
	}
	if flags.Changed("type") {
		v, _ := flags.GetString("type")
		v = strings.ToLower(v)
		p.Type = &v
	}
	if flags.Changed("range") {
		v, _ := flags.GetString("range")
		r := core.DateRange(strings.ToLower(v))
		p.DateRange = &r
	}
	if flags.Changed("search") {
		v, _ := flags.GetString("search")
		p.Search = &v
	}
	return p
}

// applyFilters sets the filter flags the user passed on l and reports
// whether there were any.
func applyFilters(cmd *cobra.Command, l *ledger.Store) bool {
	p := filterPatch(cmd)
	if p.IsEmpty() {
		return false
	}
	l.SetFilters(p)
	return true
}

func formatDate(d core.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.Format("02.01.2006")
}

// daysLabel describes how far away a payment is.
func daysLabel(days int) string {
	switch {
	case days < 0:
		return "Termin minął"
	case days == 0:
		return "Dzisiaj"
	case days == 1:
		return "Jutro"
	default:
		return fmt.Sprintf("Za %d dni", days)
	}
}

var frequencyLabels = map[core.Frequency]string{
	core.Daily:     "Codziennie",
	core.Weekly:    "Tygodniowo",
	core.Monthly:   "Miesięcznie",
	core.Quarterly: "Kwartalnie",
	core.Yearly:    "Rocznie",
}

func frequencyLabel(f core.Frequency) string {
	if l, ok := frequencyLabels[f]; ok {
		return l
	}
	return string(f)
}
