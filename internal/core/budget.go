package core

import "strings"

const (
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodWeekly  BudgetPeriod = "weekly"
)

type (
	BudgetPeriod string

	// Budget caps spending in one expense category.
	Budget struct {
		ID       string       `json:"id"`
		Category string       `json:"category"`
		Amount   Money        `json:"amount"`
		Period   BudgetPeriod `json:"period"`
	}

	// BudgetProgress compares a budget with what has been spent in its category.
	BudgetProgress struct {
		Budget     Budget
		Spent      Money
		Percentage float64 // uncapped; 120 means 20% over
		OverBudget bool
		OverBy     Money
	}

	// BudgetOverview aggregates the progress of all budgets.
	BudgetOverview struct {
		Active       int
		WithinBudget int
		Exceeded     int
		TotalOverBy  Money
	}
)

func (p BudgetPeriod) Valid() bool {
	return p == PeriodMonthly || p == PeriodWeekly
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !b.Period.Valid() {
		return ErrInvalidBudgetPeriod
	}
	return nil
}

// DisplayPercentage caps Percentage at 100 for progress bars.
func (p BudgetProgress) DisplayPercentage() float64 {
	if p.Percentage > 100 {
		return 100
	}
	return p.Percentage
}

// TrackBudgets computes the progress of each budget against all expense
// transactions in its category, regardless of period.
func TrackBudgets(budgets []Budget, txs []Transaction) ([]BudgetProgress, BudgetOverview) {
	spending := SpendingByCategory(txs, Expense)
	progress := make([]BudgetProgress, 0, len(budgets))
	overview := BudgetOverview{Active: len(budgets)}

	for _, b := range budgets {
		spent := CategoryTotal(spending, b.Category)
		p := BudgetProgress{Budget: b, Spent: spent}
		if b.Amount.Cents > 0 {
			p.Percentage = spent.Float() / b.Amount.Float() * 100
		}
		if spent.Cents > b.Amount.Cents {
			p.OverBudget = true
			p.OverBy = spent.Sub(b.Amount)
			overview.Exceeded++
			overview.TotalOverBy = overview.TotalOverBy.Add(p.OverBy)
		} else {
			overview.WithinBudget++
		}
		progress = append(progress, p)
	}
	return progress, overview
}
