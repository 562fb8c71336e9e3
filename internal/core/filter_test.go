package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func sampleTransactions() []Transaction {
	return []Transaction{
		{ID: "1", Description: "Wypłata", Amount: Money{Cents: 100000}, Type: Income, Category: "Praca", Date: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
		{ID: "2", Description: "Obiad", Amount: Money{Cents: 20000}, Type: Expense, Category: "Jedzenie", Date: time.Date(2024, 1, 2, 13, 0, 0, 0, time.UTC)},
	}
}

func TestFilterTransactions_AllFilters(t *testing.T) {
	txs := sampleTransactions()
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	filtered, summary := Derive(txs, DefaultFilters(), now)

	require.Len(t, filtered, 2)
	assert.Equal(t, Summary{
		Income:   Money{Cents: 100000},
		Expenses: Money{Cents: 20000},
		Balance:  Money{Cents: 80000},
	}, summary)
}

func TestFilterTransactions_TypeIncome(t *testing.T) {
	txs := sampleTransactions()
	f := DefaultFilters().Merge(FilterPatch{Type: strPtr("income")})

	filtered, summary := Derive(txs, f, time.Now())

	require.Len(t, filtered, 1)
	assert.Equal(t, "1", filtered[0].ID)
	assert.Equal(t, Summary{Income: Money{Cents: 100000}, Balance: Money{Cents: 100000}}, summary)
}

func TestFilterTransactions_SearchMatchesCategory(t *testing.T) {
	txs := sampleTransactions()
	txs[1].Description = "Pizza z przyjaciółmi"
	f := DefaultFilters().Merge(FilterPatch{Search: strPtr("  JEDZ ")})

	filtered := FilterTransactions(txs, f, time.Now())

	require.Len(t, filtered, 1)
	assert.Equal(t, "2", filtered[0].ID)
}

func TestFilterTransactions_SearchMatchesDescription(t *testing.T) {
	f := DefaultFilters().Merge(FilterPatch{Search: strPtr("wypł")})

	filtered := FilterTransactions(sampleTransactions(), f, time.Now())

	require.Len(t, filtered, 1)
	assert.Equal(t, "1", filtered[0].ID)
}

func TestFilterTransactions_BlankSearchIgnored(t *testing.T) {
	f := DefaultFilters().Merge(FilterPatch{Search: strPtr("   ")})
	assert.Len(t, FilterTransactions(sampleTransactions(), f, time.Now()), 2)
}

func TestFilterTransactions_Category(t *testing.T) {
	f := DefaultFilters().Merge(FilterPatch{Category: strPtr("Praca")})
	filtered := FilterTransactions(sampleTransactions(), f, time.Now())
	require.Len(t, filtered, 1)
	assert.Equal(t, "Praca", filtered[0].Category)
}

func TestFilterTransactions_DateRanges(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	at := func(days int) Transaction {
		return Transaction{ID: "d", Type: Expense, Amount: Money{Cents: 100}, Date: now.AddDate(0, 0, -days)}
	}

	tests := []struct {
		name  string
		rng   DateRange
		tx    Transaction
		match bool
	}{
		{"week excludes 10 days ago", RangeWeek, at(10), false},
		{"week includes 2 days ago", RangeWeek, at(2), true},
		{"week boundary is start of day", RangeWeek, Transaction{Date: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)}, true},
		{"week just before boundary", RangeWeek, Transaction{Date: time.Date(2024, 3, 7, 23, 59, 0, 0, time.UTC)}, false},
		{"today includes this morning", RangeToday, Transaction{Date: time.Date(2024, 3, 15, 0, 1, 0, 0, time.UTC)}, true},
		{"today excludes yesterday", RangeToday, at(1), false},
		{"month includes 20 days ago", RangeMonth, at(20), true},
		{"month excludes 40 days ago", RangeMonth, at(40), false},
		{"year includes 300 days ago", RangeYear, at(300), true},
		{"year excludes 400 days ago", RangeYear, at(400), false},
		{"all includes ancient", RangeAll, Transaction{Date: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)}, true},
		{"unknown range matches nothing", DateRange("decade"), at(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DefaultFilters()
			f.DateRange = tt.rng
			got := FilterTransactions([]Transaction{tt.tx}, f, now)
			assert.Equal(t, tt.match, len(got) == 1)
		})
	}
}

func TestFilterTransactions_InvalidEnumsMatchNothing(t *testing.T) {
	f := DefaultFilters().Merge(FilterPatch{Type: strPtr("transfer")})
	assert.Empty(t, FilterTransactions(sampleTransactions(), f, time.Now()))
}

func TestFilterTransactions_Idempotent(t *testing.T) {
	txs := sampleTransactions()
	f := DefaultFilters().Merge(FilterPatch{Search: strPtr("o")})
	now := time.Now()

	once := FilterTransactions(txs, f, now)
	twice := FilterTransactions(once, f, now)

	assert.Equal(t, once, twice)
	assert.Equal(t, FilterTransactions(txs, f, now), once)
}

func TestFilterTransactions_DoesNotAliasInput(t *testing.T) {
	txs := sampleTransactions()
	filtered := FilterTransactions(txs, DefaultFilters(), time.Now())
	filtered[0].Description = "changed"
	assert.Equal(t, "Wypłata", txs[0].Description)
}

func TestFiltersMerge(t *testing.T) {
	week := RangeWeek
	f := DefaultFilters().Merge(FilterPatch{DateRange: &week})
	assert.Equal(t, Filters{Category: All, Type: All, DateRange: RangeWeek}, f)

	f = f.Merge(FilterPatch{})
	assert.Equal(t, RangeWeek, f.DateRange)
	assert.True(t, FilterPatch{}.IsEmpty())
}
