package planner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanse/internal/core"
	"finanse/internal/kv/memory"
	"finanse/internal/log"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func testOptions() []Option {
	n := 0
	return []Option{
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		WithLogger(log.Discard()),
	}
}

func TestBudgets(t *testing.T) {
	ctx := context.Background()
	kvs := memory.New()
	budgets, err := NewBudgets(ctx, kvs, testOptions()...)
	require.NoError(t, err)

	b, err := budgets.Add(ctx, "Jedzenie", core.Money{Cents: 50000}, "")
	require.NoError(t, err)
	assert.Equal(t, "id-1", b.ID)
	assert.Equal(t, core.PeriodMonthly, b.Period)

	_, err = budgets.Add(ctx, "Jedzenie", core.Money{Cents: 10000}, core.PeriodWeekly)
	assert.ErrorIs(t, err, ErrBudgetExists)

	_, err = budgets.Add(ctx, "Transport", core.Money{}, core.PeriodMonthly)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = budgets.Add(ctx, "Transport", core.Money{Cents: 100}, "yearly")
	assert.ErrorIs(t, err, core.ErrInvalidBudgetPeriod)

	reopened, err := NewBudgets(ctx, kvs, testOptions()...)
	require.NoError(t, err)
	require.Len(t, reopened.List(), 1)

	txs := []core.Transaction{
		{ID: "1", Amount: core.Money{Cents: 60000}, Type: core.Expense, Category: "Jedzenie"},
	}
	progress, overview := reopened.Progress(txs)
	require.Len(t, progress, 1)
	assert.True(t, progress[0].OverBudget)
	assert.Equal(t, core.Money{Cents: 10000}, progress[0].OverBy)
	assert.Equal(t, 1, overview.Exceeded)

	assert.True(t, reopened.Delete(ctx, b.ID))
	assert.False(t, reopened.Delete(ctx, b.ID))
	assert.Empty(t, reopened.List())
}

func TestGoals(t *testing.T) {
	ctx := context.Background()
	kvs := memory.New()
	goals, err := NewGoals(ctx, kvs, testOptions()...)
	require.NoError(t, err)

	_, err = goals.Add(ctx, "  ", core.Money{Cents: 100}, core.NewDate(2024, 12, 31), "")
	assert.ErrorIs(t, err, core.ErrEmptyName)
	_, err = goals.Add(ctx, "Wakacje", core.Money{Cents: 100}, core.Date{}, "")
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	g, err := goals.Add(ctx, "Wakacje", core.Money{Cents: 500000}, core.NewDate(2024, 12, 31), "")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultGoalColor, g.Color)
	assert.Equal(t, now, g.CreatedAt)

	reopened, err := NewGoals(ctx, kvs, testOptions()...)
	require.NoError(t, err)
	found, ok := reopened.Find(g.ID)
	require.True(t, ok)
	assert.Equal(t, "Wakacje", found.Name)
	assert.True(t, found.Deadline.Equal(g.Deadline.Time))

	txs := []core.Transaction{
		{Description: "Oszczędności: Wakacje", Amount: core.Money{Cents: 100000}, Type: core.Income, Category: core.SavingsCategory},
	}
	progress, overview := reopened.Progress(txs, now)
	require.Len(t, progress, 1)
	assert.Equal(t, core.Money{Cents: 100000}, progress[0].Saved)
	assert.Equal(t, core.Money{Cents: 100000}, overview.TotalSaved)

	assert.True(t, reopened.Delete(ctx, g.ID))
	_, ok = reopened.Find(g.ID)
	assert.False(t, ok)
}

func TestRecurring(t *testing.T) {
	ctx := context.Background()
	kvs := memory.New()
	rec, err := NewRecurring(ctx, kvs, testOptions()...)
	require.NoError(t, err)

	netflix, err := rec.Add(ctx, core.RecurringPayment{
		Name:      "Netflix",
		Amount:    core.Money{Cents: 4300},
		Category:  "Rozrywka",
		Frequency: core.Monthly,
		NextDate:  core.NewDate(2024, 3, 18),
	})
	require.NoError(t, err)
	assert.True(t, netflix.Active)

	_, err = rec.Add(ctx, core.RecurringPayment{Name: "Gym", Amount: core.Money{Cents: 100}, Category: "Zdrowie", Frequency: "hourly", NextDate: core.NewDate(2024, 3, 18)})
	assert.ErrorIs(t, err, core.ErrInvalidFrequency)

	rent, err := rec.Add(ctx, core.RecurringPayment{
		Name:      "Czynsz",
		Amount:    core.Money{Cents: 200000},
		Category:  "Rachunki",
		Frequency: core.Monthly,
		NextDate:  core.NewDate(2024, 4, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, core.Money{Cents: 204300}, rec.TotalMonthly())
	upcoming := rec.Upcoming(now)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Netflix", upcoming[0].Name)

	active, err := rec.Toggle(ctx, netflix.ID)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Empty(t, rec.Upcoming(now))
	assert.Equal(t, core.Money{Cents: 200000}, rec.TotalMonthly())

	_, err = rec.Toggle(ctx, "missing")
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	require.NoError(t, rec.SetNextDate(ctx, rent.ID, core.NewDate(2024, 3, 20)))
	assert.ErrorIs(t, rec.SetNextDate(ctx, "missing", core.NewDate(2024, 3, 20)), ErrPaymentNotFound)

	edit := rent
	edit.Amount = core.Money{Cents: 210000}
	edit.NextDate = core.NewDate(2024, 3, 20)
	edit.CreatedAt = time.Time{}
	updated, err := rec.Update(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, core.Money{Cents: 210000}, updated.Amount)
	assert.Equal(t, rent.CreatedAt, updated.CreatedAt)
	assert.Equal(t, 1, updated.AnchorDay, "SetNextDate keeps the anchor day")
	assert.Equal(t, 18, netflix.AnchorDay)

	edit.NextDate = core.NewDate(2024, 3, 25)
	updated, err = rec.Update(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, 25, updated.AnchorDay, "a new next date moves the anchor day")
	edit.NextDate = core.NewDate(2024, 3, 20)
	_, err = rec.Update(ctx, edit)
	require.NoError(t, err)

	edit.ID = "missing"
	_, err = rec.Update(ctx, edit)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	reopened, err := NewRecurring(ctx, kvs, testOptions()...)
	require.NoError(t, err)
	got, ok := reopened.Find(rent.ID)
	require.True(t, ok)
	assert.Equal(t, core.Money{Cents: 210000}, got.Amount)
	assert.Equal(t, "2024-03-20", got.NextDate.String())
	n, ok := reopened.Find(netflix.ID)
	require.True(t, ok)
	assert.False(t, n.Active)

	assert.True(t, reopened.Delete(ctx, netflix.ID))
	assert.Len(t, reopened.List(), 1)
}

func TestCorruptDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kvs := memory.New()
	require.NoError(t, kvs.Set(ctx, BudgetsKey, []byte("{oops")))

	budgets, err := NewBudgets(ctx, kvs, testOptions()...)
	require.NoError(t, err)
	assert.Empty(t, budgets.List())

	_, err = budgets.Add(ctx, "Inne", core.Money{Cents: 100}, core.PeriodWeekly)
	require.NoError(t, err)
	assert.Len(t, budgets.List(), 1, "memory keeps working")
	raw, _, err := kvs.Get(ctx, BudgetsKey)
	require.NoError(t, err)
	assert.Equal(t, "{oops", string(raw), "unreadable data is not replaced")
}

func TestConcurrentBooksKeepBothChanges(t *testing.T) {
	ctx := context.Background()
	kvs := memory.New()
	cli, err := NewRecurring(ctx, kvs, testOptions()...)
	require.NoError(t, err)
	worker, err := NewRecurring(ctx, kvs, append(testOptions(), WithIDGenerator(func() string { return "w-1" }))...)
	require.NoError(t, err)

	p, err := cli.Add(ctx, core.RecurringPayment{Name: "Netflix", Amount: core.Money{Cents: 4300}, Category: "Rozrywka", Frequency: core.Monthly, NextDate: core.NewDate(2024, 3, 18)})
	require.NoError(t, err)
	_, err = worker.Add(ctx, core.RecurringPayment{Name: "Czynsz", Amount: core.Money{Cents: 200000}, Category: "Rachunki", Frequency: core.Monthly, NextDate: core.NewDate(2024, 4, 1)})
	require.NoError(t, err)
	assert.Len(t, worker.List(), 2)

	require.NoError(t, worker.SetNextDate(ctx, p.ID, core.NewDate(2024, 4, 18)))
	_, err = cli.Toggle(ctx, p.ID)
	require.NoError(t, err)

	reopened, err := NewRecurring(ctx, kvs, testOptions()...)
	require.NoError(t, err)
	require.Len(t, reopened.List(), 2)
	got, ok := reopened.Find(p.ID)
	require.True(t, ok)
	assert.False(t, got.Active)
	assert.Equal(t, "2024-04-18", got.NextDate.String(), "the other process's change survives")
}
