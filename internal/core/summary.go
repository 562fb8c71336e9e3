package core

import (
	"fmt"
	"time"
)

// Summary holds aggregated totals over a set of transactions.
type Summary struct {
	Income   Money `json:"income"`
	Expenses Money `json:"expenses"`
	Balance  Money `json:"balance"`
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"value"`
}

// MonthTotals is the income and expense total of one calendar month.
type MonthTotals struct {
	Year     int   `json:"year"`
	Month    int   `json:"month"` // 1-12
	Income   Money `json:"income"`
	Expenses Money `json:"expenses"`
}

// Label formats the month as "M/YYYY".
func (m MonthTotals) Label() string {
	return fmt.Sprintf("%d/%d", m.Month, m.Year)
}

// Summarize totals income and expenses. Balance is always Income - Expenses.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, t := range txs {
		switch t.Type {
		case Income:
			s.Income = s.Income.Add(t.Amount)
		case Expense:
			s.Expenses = s.Expenses.Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expenses)
	return s
}

// Derive runs the filter and summary over txs.
func Derive(txs []Transaction, f Filters, now time.Time) ([]Transaction, Summary) {
	filtered := FilterTransactions(txs, f, now)
	return filtered, Summarize(filtered)
}

// SpendingByCategory sums amounts of the given type per category, in first-seen order.
func SpendingByCategory(txs []Transaction, typ TransactionType) []CategoryAmount {
	index := make(map[string]int)
	var out []CategoryAmount
	for _, t := range txs {
		if t.Type != typ {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			index[t.Category] = len(out)
			out = append(out, CategoryAmount{Name: t.Category, Amount: t.Amount})
			continue
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	return out
}

// CategoryTotal returns the summed amount for name, or zero.
func CategoryTotal(amounts []CategoryAmount, name string) Money {
	for _, a := range amounts {
		if a.Name == name {
			return a.Amount
		}
	}
	return Money{}
}

// MonthlyTrend buckets transactions by calendar month in first-seen order and
// keeps the last limit buckets. A non-positive limit keeps all of them.
func MonthlyTrend(txs []Transaction, limit int) []MonthTotals {
	type key struct{ year, month int }
	index := make(map[key]int)
	var out []MonthTotals
	for _, t := range txs {
		k := key{t.Date.Year(), int(t.Date.Month())}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, MonthTotals{Year: k.year, Month: k.month})
		}
		if t.Type == Income {
			out[i].Income = out[i].Income.Add(t.Amount)
		} else {
			out[i].Expenses = out[i].Expenses.Add(t.Amount)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
