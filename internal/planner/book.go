// Package planner keeps the budgets, savings goals and recurring payments
// next to the ledger, each persisted as a JSON array under its own key.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"finanse/internal/kv"
	"finanse/internal/log"
)

const (
	BudgetsKey   = "expense-tracker-budgets"
	GoalsKey     = "expense-tracker-goals"
	RecurringKey = "expense-tracker-recurring"
)

var (
	ErrBudgetExists    = errors.New("budget for this category already exists")
	ErrBudgetNotFound  = errors.New("budget not found")
	ErrGoalNotFound    = errors.New("goal not found")
	ErrPaymentNotFound = errors.New("recurring payment not found")
)

type settings struct {
	now    func() time.Time
	newID  func() string
	logger *log.Logger
}

// Option configures a book.
type Option func(*settings)

func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *settings) { s.newID = gen }
}

func WithLogger(l *log.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// maxWriteAttempts bounds the reload-and-replay loop on concurrent writes.
const maxWriteAttempts = 3

// book is a mutex-guarded slice persisted as one JSON value. Every change is
// a function of the current items so it can be replayed on a fresher list
// when another process wrote the key first.
type book[T any] struct {
	mu    sync.Mutex
	kv    kv.Store
	key   string
	items []T

	// restored is false when the stored list could not be loaded; nothing
	// is written back then.
	restored bool
	revision int64
	settings
}

func openBook[T any](ctx context.Context, store kv.Store, key string, opts []Option) (*book[T], error) {
	if store == nil {
		return nil, errors.New("planner: nil kv store")
	}
	b := &book[T]{
		kv:  store,
		key: key,
		settings: settings{
			now:    time.Now,
			newID:  uuid.NewString,
			logger: log.New(log.DefaultConfig()),
		},
	}
	for _, opt := range opts {
		opt(&b.settings)
	}
	b.logger = b.logger.WithComponent(log.ComponentPlanner)

	b.items, b.revision, b.restored = b.load(ctx)
	return b, nil
}

func (b *book[T]) load(ctx context.Context) ([]T, int64, bool) {
	items, revision, _, err := kv.ReadJSON[[]T](ctx, b.kv, b.key)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to load planner data, starting empty without saving",
			log.FieldOperation, log.OpLoad,
			log.FieldKey, b.key,
			log.FieldErrorType, log.ErrorTypeDecode,
			log.FieldError, err)
		return nil, 0, false
	}
	return items, revision, true
}

// commit applies change to the items and persists them. change must not
// modify its argument. Must be called with mu held. Failures are logged;
// memory stays authoritative.
func (b *book[T]) commit(ctx context.Context, change func([]T) []T) {
	b.items = change(b.items)
	if !b.restored {
		b.logger.WarnContext(ctx, "Not saving planner data, stored data could not be read",
			log.FieldOperation, log.OpPersist,
			log.FieldKey, b.key)
		return
	}

	for attempt := 1; ; attempt++ {
		items := b.items
		if items == nil {
			items = []T{}
		}
		raw, err := json.Marshal(items)
		if err == nil {
			var revision int64
			if revision, err = kv.Write(ctx, b.kv, b.key, raw, b.revision); err == nil {
				b.revision = revision
				return
			}
		}
		if !errors.Is(err, kv.ErrConflict) || attempt == maxWriteAttempts {
			b.logger.ErrorContext(ctx, "Failed to persist planner data",
				log.FieldOperation, log.OpPersist,
				log.FieldKey, b.key,
				log.FieldErrorType, log.ErrorTypeDatabase,
				log.FieldError, err)
			return
		}

		b.logger.InfoContext(ctx, "Planner data changed by another process, replaying",
			log.FieldOperation, log.OpPersist,
			log.FieldKey, b.key,
			log.FieldErrorType, log.ErrorTypeConflict)
		fresh, revision, ok := b.load(ctx)
		if !ok {
			b.restored = false
			return
		}
		b.items, b.revision = change(fresh), revision
	}
}

func indexWhere[T any](items []T, match func(T) bool) int {
	for i, it := range items {
		if match(it) {
			return i
		}
	}
	return -1
}

func (b *book[T]) list() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]T(nil), b.items...)
}

// insert appends item unless an item matching exists. Must be called with mu held.
func (b *book[T]) insert(ctx context.Context, item T, exists func(T) bool) {
	b.commit(ctx, func(items []T) []T {
		if indexWhere(items, exists) >= 0 {
			return items
		}
		return append(append([]T(nil), items...), item)
	})
}

// remove deletes the first item matching and persists. It reports whether one was found.
func (b *book[T]) remove(ctx context.Context, match func(T) bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if indexWhere(b.items, match) < 0 {
		return false
	}
	b.commit(ctx, func(items []T) []T {
		i := indexWhere(items, match)
		if i < 0 {
			return items
		}
		out := make([]T, 0, len(items)-1)
		out = append(out, items[:i]...)
		return append(out, items[i+1:]...)
	})
	return true
}

// update applies fn to the first item matching and persists the result.
// On a replay fn runs again on the stored item, so changes to other fields
// made by another process are kept.
func (b *book[T]) update(ctx context.Context, match func(T) bool, fn func(*T) error) (T, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var zero T
	i := indexWhere(b.items, match)
	if i < 0 {
		return zero, false, nil
	}
	updated := b.items[i]
	if err := fn(&updated); err != nil {
		return zero, true, err
	}
	b.commit(ctx, func(items []T) []T {
		j := indexWhere(items, match)
		if j < 0 {
			return items
		}
		next := items[j]
		if err := fn(&next); err != nil {
			return items
		}
		out := append([]T(nil), items...)
		out[j] = next
		updated = next
		return out
	})
	return updated, true, nil
}

func (b *book[T]) find(match func(T) bool) (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := indexWhere(b.items, match); i >= 0 {
		return b.items[i], true
	}
	var zero T
	return zero, false
}
