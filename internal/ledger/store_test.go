package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanse/internal/core"
	"finanse/internal/kv/memory"
	"finanse/internal/log"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

type brokenKV struct {
	readFails bool
	sets      int
}

func (b *brokenKV) Get(context.Context, string) ([]byte, bool, error) {
	if b.readFails {
		return nil, false, errors.New("read failed")
	}
	return nil, false, nil
}

func (b *brokenKV) Set(context.Context, string, []byte) error {
	b.sets++
	return errors.New("quota exceeded")
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	}
}

func newTestStore(t *testing.T, kvs *memory.Store, opts ...Option) (*Store, *recorder) {
	t.Helper()
	rec := &recorder{}
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
		WithNotifier(rec),
		WithLogger(log.Discard()),
	}
	s, err := New(context.Background(), kvs, append(base, opts...)...)
	require.NoError(t, err)
	return s, rec
}

func salary() core.NewTransaction {
	return core.NewTransaction{Description: "Wypłata", Amount: core.Money{Cents: 100000}, Type: core.Income, Category: "Praca"}
}

func lunch() core.NewTransaction {
	return core.NewTransaction{Description: "Obiad", Amount: core.Money{Cents: 20000}, Type: core.Expense, Category: "Jedzenie"}
}

func TestNew_EmptyStore(t *testing.T) {
	s, _ := newTestStore(t, memory.New())

	v := s.View()
	assert.Empty(t, v.All)
	assert.Empty(t, v.Filtered)
	assert.Equal(t, core.Summary{}, v.Summary)
	assert.Equal(t, core.DefaultFilters(), v.Filters)
}

func TestNew_NilStore(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}

func TestAdd_PrependsAndSummarizes(t *testing.T) {
	s, rec := newTestStore(t, memory.New())
	ctx := context.Background()

	first := s.Add(ctx, salary())
	second := s.Add(ctx, lunch())

	assert.Equal(t, "tx-1", first.ID)
	assert.Equal(t, fixedNow, first.Date)

	v := s.View()
	require.Len(t, v.All, 2)
	assert.Equal(t, second.ID, v.All[0].ID, "newest first")
	assert.Equal(t, first.ID, v.All[1].ID)
	assert.Equal(t, core.Summary{
		Income:   core.Money{Cents: 100000},
		Expenses: core.Money{Cents: 20000},
		Balance:  core.Money{Cents: 80000},
	}, v.Summary)
	assert.Equal(t, []EventKind{EventAdded, EventAdded}, rec.kinds())
}

func TestAdd_IDsUnique(t *testing.T) {
	kvs := memory.New()
	s, err := New(context.Background(), kvs, WithLogger(log.Discard()), WithNotifier(NotifierFunc(func(context.Context, Event) {})))
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tx := s.Add(context.Background(), lunch())
		require.False(t, seen[tx.ID], "duplicate id %s", tx.ID)
		seen[tx.ID] = true
	}
}

func TestEdit(t *testing.T) {
	s, rec := newTestStore(t, memory.New())
	ctx := context.Background()
	tx := s.Add(ctx, lunch())

	edited := tx
	edited.Description = "Kolacja"
	edited.Amount = core.Money{Cents: 35000}
	edited.Date = time.Time{}
	require.NoError(t, s.Edit(ctx, edited))

	got, ok := s.Find(tx.ID)
	require.True(t, ok)
	assert.Equal(t, "Kolacja", got.Description)
	assert.Equal(t, core.Money{Cents: 35000}, got.Amount)
	assert.Equal(t, tx.Date, got.Date, "zero date keeps the stored date")
	assert.Equal(t, []EventKind{EventAdded, EventEdited}, rec.kinds())
	assert.Equal(t, core.Money{Cents: 35000}, s.Summary().Expenses)
}

func TestEdit_UnknownID(t *testing.T) {
	s, rec := newTestStore(t, memory.New())
	ctx := context.Background()
	s.Add(ctx, lunch())
	before := s.Transactions()

	err := s.Edit(ctx, core.Transaction{ID: "missing", Description: "x"})

	assert.ErrorIs(t, err, ErrTransactionNotFound)
	assert.Equal(t, before, s.Transactions())
	assert.Equal(t, []EventKind{EventAdded}, rec.kinds())
}

func TestDelete(t *testing.T) {
	s, rec := newTestStore(t, memory.New())
	ctx := context.Background()
	a := s.Add(ctx, salary())
	b := s.Add(ctx, lunch())

	assert.True(t, s.Delete(ctx, b.ID))
	assert.False(t, s.Delete(ctx, b.ID), "second delete is a no-op")
	assert.False(t, s.Delete(ctx, "missing"))

	all := s.Transactions()
	require.Len(t, all, 1)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, []EventKind{EventAdded, EventAdded, EventDeleted}, rec.kinds())
	assert.Equal(t, "Usunięto transakcję: Obiad", rec.events[2].Message())
}

func TestSetFilters_MergesAndKeepsList(t *testing.T) {
	s, rec := newTestStore(t, memory.New())
	ctx := context.Background()
	s.Add(ctx, salary())
	s.Add(ctx, lunch())

	income := "income"
	s.SetFilters(core.FilterPatch{Type: &income})
	search := "wyp"
	s.SetFilters(core.FilterPatch{Search: &search})

	v := s.View()
	assert.Equal(t, core.Filters{Category: core.All, Type: "income", DateRange: core.RangeAll, Search: "wyp"}, v.Filters)
	require.Len(t, v.Filtered, 1)
	assert.Equal(t, "Wypłata", v.Filtered[0].Description)
	assert.Len(t, v.All, 2)
	assert.Equal(t, core.Money{Cents: 100000}, v.Summary.Balance)
	assert.Len(t, rec.kinds(), 2, "filters do not notify")
}

func TestSetFilters_UnknownValuesMatchNothing(t *testing.T) {
	s, _ := newTestStore(t, memory.New())
	s.Add(context.Background(), lunch())

	bogus := core.DateRange("fortnight")
	s.SetFilters(core.FilterPatch{DateRange: &bogus})

	v := s.View()
	assert.Empty(t, v.Filtered)
	assert.Equal(t, core.Summary{}, v.Summary)
}

func TestPersistence_RoundTrip(t *testing.T) {
	kvs := memory.New()
	ctx := context.Background()
	s, _ := newTestStore(t, kvs)
	a := s.Add(ctx, salary())
	s.Add(ctx, lunch())
	income := "income"
	s.SetFilters(core.FilterPatch{Type: &income})

	reopened, _ := newTestStore(t, kvs)

	assert.Equal(t, s.Transactions(), reopened.Transactions())
	assert.Equal(t, core.DefaultFilters(), reopened.Filters(), "filters are not persisted")

	require.True(t, reopened.Delete(ctx, a.ID))
	again, _ := newTestStore(t, kvs)
	assert.Len(t, again.Transactions(), 1)
}

func TestPersistence_LegacyArray(t *testing.T) {
	kvs := memory.New()
	ctx := context.Background()
	legacy := `[{"id":"old-1","description":"Bilet","amount":4.5,"type":"expense","category":"Transport","date":"2024-03-01T08:00:00.000Z"}]`
	require.NoError(t, kvs.Set(ctx, DefaultKey, []byte(legacy)))

	s, _ := newTestStore(t, kvs)
	txs := s.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, core.Money{Cents: 450}, txs[0].Amount)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), txs[0].Date.UTC())

	s.Add(ctx, lunch())
	raw, found, err := kvs.Get(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, string(raw), `"version":1`)
}

func TestPersistence_UnreadableSnapshotIsKept(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{name: "corrupt json", stored: "{not json"},
		{name: "newer version", stored: `{"version":2,"transactions":[{"id":"a","description":"Czynsz","amount":1500,"type":"expense","category":"Rachunki","date":"2024-03-01T08:00:00Z"}]}`},
		{name: "wrong shape", stored: `{"version":1,"transactions":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kvs := memory.New()
			ctx := context.Background()
			require.NoError(t, kvs.Set(ctx, DefaultKey, []byte(tt.stored)))

			s, rec := newTestStore(t, kvs)
			assert.Empty(t, s.Transactions())

			added := s.Add(ctx, lunch())
			require.NoError(t, s.Edit(ctx, core.Transaction{ID: added.ID, Description: "Kolacja", Amount: added.Amount, Type: added.Type, Category: added.Category}))
			require.True(t, s.Delete(ctx, added.ID))
			s.Add(ctx, salary())

			raw, found, err := kvs.Get(ctx, DefaultKey)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tt.stored, string(raw), "stored data must not be replaced")

			assert.Len(t, s.Transactions(), 1, "the session keeps working in memory")
			assert.Equal(t, []EventKind{EventAdded, EventEdited, EventDeleted, EventAdded}, rec.kinds())
		})
	}
}

func TestPersistence_ReadFailureSkipsWrites(t *testing.T) {
	b := &brokenKV{readFails: true}
	s, err := New(context.Background(), b, WithLogger(log.Discard()))
	require.NoError(t, err)

	tx := s.Add(context.Background(), lunch())
	assert.Zero(t, b.sets)
	_, ok := s.Find(tx.ID)
	assert.True(t, ok)
}

func TestPersistence_ConcurrentWritersKeepBothChanges(t *testing.T) {
	kvs := memory.New()
	ctx := context.Background()
	cli, _ := newTestStore(t, kvs, WithIDGenerator(func() string { return "cli-1" }))
	worker, _ := newTestStore(t, kvs, WithIDGenerator(func() string { return "worker-1" }))

	cli.Add(ctx, salary())
	worker.Add(ctx, lunch())

	reopened, _ := newTestStore(t, kvs)
	ids := make([]string, 0, 2)
	for _, tx := range reopened.Transactions() {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []string{"worker-1", "cli-1"}, ids)
	assert.Equal(t, reopened.Transactions(), worker.Transactions(), "the late writer catches up")

	require.True(t, cli.Delete(ctx, "cli-1"))
	require.NoError(t, worker.Edit(ctx, core.Transaction{ID: "worker-1", Description: "Kolacja", Amount: core.Money{Cents: 5000}, Type: core.Expense, Category: "Jedzenie"}))

	reopened, _ = newTestStore(t, kvs)
	all := reopened.Transactions()
	require.Len(t, all, 1)
	assert.Equal(t, "Kolacja", all[0].Description)
	assert.Equal(t, fixedNow, all[0].Date)
}

func TestPersistence_FailuresKeepMemoryState(t *testing.T) {
	b := &brokenKV{}
	s, err := New(context.Background(), b,
		WithLogger(log.Discard()),
		WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	tx := s.Add(context.Background(), lunch())
	assert.Equal(t, 1, b.sets)
	got, ok := s.Find(tx.ID)
	require.True(t, ok)
	assert.Equal(t, "Obiad", got.Description)
}

func TestWithKey(t *testing.T) {
	kvs := memory.New()
	s, _ := newTestStore(t, kvs, WithKey("other"))
	s.Add(context.Background(), lunch())

	_, found, err := kvs.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = kvs.Get(context.Background(), "other")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDispatch_AddAssignsMissingFields(t *testing.T) {
	s, _ := newTestStore(t, memory.New())
	ctx := context.Background()

	require.NoError(t, s.Dispatch(ctx, AddTransaction{Transaction: core.Transaction{Description: "Kino", Amount: core.Money{Cents: 3000}, Type: core.Expense, Category: "Rozrywka"}}))
	require.NoError(t, s.Dispatch(ctx, DeleteTransaction{ID: "nope"}))

	all := s.Transactions()
	require.Len(t, all, 1)
	assert.Equal(t, "tx-1", all[0].ID)
	assert.Equal(t, fixedNow, all[0].Date)
}

func TestDispatch_DuplicateID(t *testing.T) {
	s, rec := newTestStore(t, memory.New())
	ctx := context.Background()
	tx := core.Transaction{ID: "dup", Description: "Kino", Amount: core.Money{Cents: 3000}, Type: core.Expense, Category: "Rozrywka"}

	require.NoError(t, s.Dispatch(ctx, AddTransaction{Transaction: tx}))
	err := s.Dispatch(ctx, AddTransaction{Transaction: tx})
	assert.ErrorIs(t, err, ErrDuplicateID)

	require.Len(t, s.Transactions(), 1)
	assert.Equal(t, []EventKind{EventAdded}, rec.kinds())

	require.True(t, s.Delete(ctx, "dup"))
	assert.Empty(t, s.Transactions())
}

func TestConcurrentAdds(t *testing.T) {
	kvs := memory.New()
	s, err := New(context.Background(), kvs, WithLogger(log.Discard()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(context.Background(), lunch())
		}()
	}
	wg.Wait()

	assert.Len(t, s.Transactions(), 20)
	reopened, err := New(context.Background(), kvs, WithLogger(log.Discard()))
	require.NoError(t, err)
	assert.Len(t, reopened.Transactions(), 20)
}
