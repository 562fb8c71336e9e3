package core

import (
	"strings"
	"time"
)

// All is the wildcard value for the category and type filters.
const All = "all"

// DateRange selects transactions created on or after a cutoff relative to today.
type DateRange string

const (
	RangeAll   DateRange = "all"
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
	RangeYear  DateRange = "year"
)

// Filters is the active set of constraints narrowing which transactions are
// displayed and aggregated. Values are not validated; an unknown value simply
// matches nothing.
type Filters struct {
	Category  string    `json:"category"`
	Type      string    `json:"type"`
	DateRange DateRange `json:"dateRange"`
	Search    string    `json:"search"`
}

// FilterPatch is a partial update of Filters. Nil fields are left unchanged.
type FilterPatch struct {
	Category  *string
	Type      *string
	DateRange *DateRange
	Search    *string
}

// DefaultFilters matches every transaction.
func DefaultFilters() Filters {
	return Filters{
		Category:  All,
		Type:      All,
		DateRange: RangeAll,
		Search:    "",
	}
}

// Merge applies p on top of f.
func (f Filters) Merge(p FilterPatch) Filters {
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Type != nil {
		f.Type = *p.Type
	}
	if p.DateRange != nil {
		f.DateRange = *p.DateRange
	}
	if p.Search != nil {
		f.Search = *p.Search
	}
	return f
}

// IsEmpty reports whether the patch changes nothing.
func (p FilterPatch) IsEmpty() bool {
	return p.Category == nil && p.Type == nil && p.DateRange == nil && p.Search == nil
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Cutoff returns the earliest instant kept by r relative to now.
// ok is false for RangeAll. Unknown ranges return a cutoff no time can reach.
func (r DateRange) Cutoff(now time.Time) (cutoff time.Time, ok bool) {
	today := StartOfDay(now)
	switch r {
	case RangeAll:
		return time.Time{}, false
	case RangeToday:
		return today, true
	case RangeWeek:
		return today.AddDate(0, 0, -7), true
	case RangeMonth:
		return today.AddDate(0, -1, 0), true
	case RangeYear:
		return today.AddDate(-1, 0, 0), true
	default:
		return time.Unix(1<<62, 0), true
	}
}

// FilterTransactions returns the transactions matching f, in input order.
// Checks run category, type, search, then date range, all AND-combined.
func FilterTransactions(txs []Transaction, f Filters, now time.Time) []Transaction {
	query := strings.ToLower(strings.TrimSpace(f.Search))
	cutoff, hasCutoff := f.DateRange.Cutoff(now)

	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Category != All && t.Category != f.Category {
			continue
		}
		if f.Type != All && string(t.Type) != f.Type {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Description), query) &&
			!strings.Contains(strings.ToLower(t.Category), query) {
			continue
		}
		if hasCutoff && t.Date.Before(cutoff) {
			continue
		}
		out = append(out, t)
	}
	return out
}
