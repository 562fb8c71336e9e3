package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanse/internal/core"
	"finanse/internal/kv/memory"
	"finanse/internal/ledger"
	"finanse/internal/log"
	"finanse/internal/planner"
)

type fixture struct {
	ledger    *ledger.Store
	recurring *planner.Recurring
	proc      *RecurringProcessor
}

func newFixture(t *testing.T, now time.Time) fixture {
	t.Helper()
	ctx := context.Background()
	kvs := memory.New()
	n := 0
	ids := func() string { n++; return fmt.Sprintf("id-%d", n) }
	clock := func() time.Time { return now }

	l, err := ledger.New(ctx, kvs, ledger.WithClock(clock), ledger.WithIDGenerator(ids), ledger.WithLogger(log.Discard()))
	require.NoError(t, err)
	r, err := planner.NewRecurring(ctx, kvs, planner.WithClock(clock), planner.WithIDGenerator(ids), planner.WithLogger(log.Discard()))
	require.NoError(t, err)

	return fixture{ledger: l, recurring: r, proc: NewRecurringProcessor(l, r, log.Discard())}
}

func (f fixture) addPayment(t *testing.T, name string, freq core.Frequency, next core.Date) core.RecurringPayment {
	t.Helper()
	p, err := f.recurring.Add(context.Background(), core.RecurringPayment{
		Name:      name,
		Amount:    core.Money{Cents: 4999},
		Category:  "Rachunki",
		Frequency: freq,
		NextDate:  next,
	})
	require.NoError(t, err)
	return p
}

func TestRecurringProcessor_Post(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	p := f.addPayment(t, "Internet", core.Monthly, core.NewDate(2024, 1, 31))

	tx, updated, err := f.proc.Post(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, "Internet", tx.Description)
	assert.Equal(t, core.Expense, tx.Type)
	assert.Equal(t, "Rachunki", tx.Category)
	assert.Equal(t, core.Money{Cents: 4999}, tx.Amount)
	assert.Equal(t, now, tx.Date)
	assert.Equal(t, "2024-02-29", updated.NextDate.String())

	stored, ok := f.recurring.Find(p.ID)
	require.True(t, ok)
	assert.Equal(t, "2024-02-29", stored.NextDate.String())
	assert.Len(t, f.ledger.Transactions(), 1)

	_, updated, err = f.proc.Post(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31", updated.NextDate.String(), "returns to the anchor day after february")

	_, _, err = f.proc.Post(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestRecurringProcessor_ProcessDue(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	ctx := context.Background()

	dueToday := f.addPayment(t, "Siłownia", core.Monthly, core.NewDate(2024, 3, 15))
	missedWeeks := f.addPayment(t, "Sprzątanie", core.Weekly, core.NewDate(2024, 3, 1))
	future := f.addPayment(t, "Ubezpieczenie", core.Yearly, core.NewDate(2024, 6, 1))
	inactive := f.addPayment(t, "Gazeta", core.Daily, core.NewDate(2024, 3, 1))
	_, err := f.recurring.Toggle(ctx, inactive.ID)
	require.NoError(t, err)

	res, err := f.proc.ProcessDue(ctx, now)
	require.NoError(t, err)

	// monthly: 15.03 -> 1 post; weekly: 01.03, 08.03, 15.03 -> 3 posts
	assert.Equal(t, ProcessResult{Checked: 3, Posted: 4}, res)
	assert.Len(t, f.ledger.Transactions(), 4)

	check := func(id, want string) {
		p, ok := f.recurring.Find(id)
		require.True(t, ok)
		assert.Equal(t, want, p.NextDate.String(), p.Name)
	}
	check(dueToday.ID, "2024-04-15")
	check(missedWeeks.ID, "2024-03-22")
	check(future.ID, "2024-06-01")
	check(inactive.ID, "2024-03-01")

	res, err = f.proc.ProcessDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Posted, "second run on the same day posts nothing")
}

func TestRecurringProcessor_ProcessDueKeepsAnchorDay(t *testing.T) {
	now := time.Date(2024, 4, 1, 7, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	p := f.addPayment(t, "Czynsz", core.Monthly, core.NewDate(2024, 1, 31))

	res, err := f.proc.ProcessDue(context.Background(), now)
	require.NoError(t, err)

	// 31.01, 29.02 and 31.03 are due
	assert.Equal(t, 3, res.Posted)
	stored, _ := f.recurring.Find(p.ID)
	assert.Equal(t, "2024-04-30", stored.NextDate.String())
	assert.Equal(t, 31, stored.AnchorDay)
}

func TestRecurringProcessor_CatchUpLimit(t *testing.T) {
	now := time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	p := f.addPayment(t, "Kawa", core.Daily, core.NewDate(2024, 1, 1))
	f.proc.SetMaxCatchUp(5)

	res, err := f.proc.ProcessDue(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Posted)
	assert.Equal(t, 15, res.Skipped)
	stored, _ := f.recurring.Find(p.ID)
	assert.Equal(t, "2024-01-21", stored.NextDate.String())
}

func TestRecurringProcessor_NotInitialized(t *testing.T) {
	proc := NewRecurringProcessor(nil, nil, log.Discard())
	_, err := proc.ProcessDue(context.Background(), time.Now())
	assert.Error(t, err)
	_, _, err = proc.Post(context.Background(), "x")
	assert.Error(t, err)
}
