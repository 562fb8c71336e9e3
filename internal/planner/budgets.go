package planner

import (
	"context"

	"finanse/internal/core"
	"finanse/internal/kv"
	"finanse/internal/log"
)

// Budgets is the persisted list of category budgets. At most one budget
// exists per category.
type Budgets struct {
	b *book[core.Budget]
}

func NewBudgets(ctx context.Context, store kv.Store, opts ...Option) (*Budgets, error) {
	b, err := openBook[core.Budget](ctx, store, BudgetsKey, opts)
	if err != nil {
		return nil, err
	}
	return &Budgets{b: b}, nil
}

// Add creates a budget for category. It fails with ErrBudgetExists when the
// category already has one.
func (s *Budgets) Add(ctx context.Context, category string, amount core.Money, period core.BudgetPeriod) (core.Budget, error) {
	budget := core.Budget{Category: category, Amount: amount, Period: period}
	if budget.Period == "" {
		budget.Period = core.PeriodMonthly
	}
	if err := budget.Validate(); err != nil {
		return core.Budget{}, err
	}

	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	for _, existing := range s.b.items {
		if existing.Category == category {
			return core.Budget{}, ErrBudgetExists
		}
	}
	budget.ID = s.b.newID()
	s.b.insert(ctx, budget, func(b core.Budget) bool { return b.Category == category })

	s.b.logger.InfoContext(ctx, "Budget added",
		log.FieldOperation, log.OpCreate,
		log.FieldCategory, category,
		log.FieldAmountCents, amount.Cents)
	return budget, nil
}

// Delete removes the budget with id, reporting whether it existed.
func (s *Budgets) Delete(ctx context.Context, id string) bool {
	return s.b.remove(ctx, func(b core.Budget) bool { return b.ID == id })
}

func (s *Budgets) List() []core.Budget {
	return s.b.list()
}

// Progress tracks every budget against txs.
func (s *Budgets) Progress(txs []core.Transaction) ([]core.BudgetProgress, core.BudgetOverview) {
	return core.TrackBudgets(s.List(), txs)
}
