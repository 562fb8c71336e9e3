// Package ledger holds the list of transactions and the active filters,
// persists the list through a kv.Store and derives the filtered view.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"finanse/internal/core"
	"finanse/internal/kv"
	"finanse/internal/log"
)

var (
	// ErrTransactionNotFound is returned by Edit when no transaction has the given ID.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrDuplicateID is returned when an added transaction reuses an existing ID.
	ErrDuplicateID = errors.New("transaction id already exists")
)

// maxWriteAttempts bounds the reload-and-replay loop on concurrent writes.
const maxWriteAttempts = 3

// View is what a presentation layer renders: the filtered list, the
// summary over it, the full list and the active filters.
type View struct {
	Filtered []core.Transaction
	All      []core.Transaction
	Summary  core.Summary
	Filters  core.Filters
}

// Store serializes mutations of the ledger state. Every mutation is applied
// in call order and persisted before it returns. Persistence failures are
// logged; the in-memory state remains authoritative.
//
// When the stored list could not be read at startup nothing is written
// back for the rest of the session, so unreadable data is never replaced.
// On a kv.VersionedStore a write that lost a race with another process
// reloads the stored list and replays the action on top of it.
type Store struct {
	mu    sync.Mutex
	state State

	// restored is false when the stored list could not be loaded.
	restored bool
	revision int64

	kv       kv.Store
	key      string
	now      func() time.Time
	newID    func() string
	notifier Notifier
	logger   *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for creation dates and date ranges.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithNotifier replaces the default LogNotifier.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogger sets the logger; the ledger component name is added to it.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentLedger) }
}

// WithKey changes the key the list is persisted under.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// New restores the ledger from store. A missing key yields an empty ledger.
// An unreadable or undecodable snapshot is logged and also yields an empty
// ledger; only a nil store is an error.
func New(ctx context.Context, store kv.Store, opts ...Option) (*Store, error) {
	if store == nil {
		return nil, errors.New("ledger: nil kv store")
	}

	s := &Store{
		state:  InitialState(),
		kv:     store,
		key:    DefaultKey,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Logger: s.logger}
	}

	txs, revision, ok := s.load(ctx)
	s.state.Transactions, s.revision, s.restored = txs, revision, ok
	return s, nil
}

// load reads the stored list. ok is false when it exists but cannot be used.
func (s *Store) load(ctx context.Context) (txs []core.Transaction, revision int64, ok bool) {
	raw, revision, found, err := kv.Read(ctx, s.kv, s.key)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read transactions, starting empty without saving",
			log.FieldOperation, log.OpLoad,
			log.FieldKey, s.key,
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldError, err)
		return nil, 0, false
	}
	if !found {
		return nil, revision, true
	}

	txs, version, err := decodeSnapshot(raw)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to decode transactions, starting empty without saving",
			log.FieldOperation, log.OpLoad,
			log.FieldKey, s.key,
			log.FieldErrorType, log.ErrorTypeDecode,
			log.FieldError, err)
		return nil, 0, false
	}

	s.logger.DebugContext(ctx, "Transactions restored",
		log.FieldKey, s.key,
		log.FieldCount, len(txs),
		"snapshot_version", version,
		"revision", revision)
	return txs, revision, true
}

// persist writes the list after a was applied. Must be called with mu held.
func (s *Store) persist(ctx context.Context, a Action) {
	if !s.restored {
		s.logger.WarnContext(ctx, "Not saving transactions, stored data could not be read",
			log.FieldOperation, log.OpPersist,
			log.FieldKey, s.key)
		return
	}

	for attempt := 1; ; attempt++ {
		raw, err := encodeSnapshot(s.state.Transactions)
		if err == nil {
			var revision int64
			if revision, err = kv.Write(ctx, s.kv, s.key, raw, s.revision); err == nil {
				s.revision = revision
				return
			}
		}
		if !errors.Is(err, kv.ErrConflict) || attempt == maxWriteAttempts {
			s.logger.ErrorContext(ctx, "Failed to persist transactions",
				log.FieldOperation, log.OpPersist,
				log.FieldKey, s.key,
				log.FieldErrorType, log.ErrorTypeDatabase,
				log.FieldError, err)
			return
		}

		s.logger.InfoContext(ctx, "Transactions changed by another process, replaying",
			log.FieldOperation, log.OpPersist,
			log.FieldKey, s.key,
			log.FieldErrorType, log.ErrorTypeConflict)
		txs, revision, ok := s.load(ctx)
		if !ok {
			s.restored = false
			return
		}
		s.state.Transactions, s.revision = txs, revision
		if add, isAdd := a.(AddTransaction); isAdd && indexOf(txs, add.Transaction.ID) >= 0 {
			continue
		}
		s.state = Reduce(s.state, a)
	}
}

// Add assigns an ID and the current time to in, prepends it and persists.
// Input is not validated; see core.ValidateInput.
func (s *Store) Add(ctx context.Context, in core.NewTransaction) core.Transaction {
	t := core.Transaction{
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    in.Category,
	}
	added, _ := s.apply(ctx, AddTransaction{Transaction: t})
	return added.Transaction
}

// Edit replaces the transaction with t.ID. It returns ErrTransactionNotFound
// and leaves the ledger unchanged when no such transaction exists.
func (s *Store) Edit(ctx context.Context, t core.Transaction) error {
	_, err := s.apply(ctx, EditTransaction{Transaction: t})
	return err
}

// Delete removes the transaction with id. It reports whether anything was
// removed; deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) bool {
	ev, _ := s.apply(ctx, DeleteTransaction{ID: id})
	return ev.Kind == EventDeleted
}

// SetFilters merges p into the active filters without validating it.
func (s *Store) SetFilters(p core.FilterPatch) {
	_, _ = s.apply(context.Background(), SetFilters{Patch: p})
}

// Dispatch applies a. An AddTransaction without ID or Date gets them assigned;
// one whose ID is already present fails with ErrDuplicateID.
func (s *Store) Dispatch(ctx context.Context, a Action) error {
	_, err := s.apply(ctx, a)
	return err
}

func (s *Store) apply(ctx context.Context, a Action) (Event, error) {
	s.mu.Lock()

	var ev Event
	switch act := a.(type) {
	case AddTransaction:
		if act.Transaction.ID == "" {
			act.Transaction.ID = s.newID()
		}
		if act.Transaction.Date.IsZero() {
			act.Transaction.Date = s.now()
		}
		if indexOf(s.state.Transactions, act.Transaction.ID) >= 0 {
			s.mu.Unlock()
			s.logger.WarnContext(ctx, "Add with an existing transaction id",
				log.FieldOperation, log.OpCreate,
				log.FieldTransactionID, act.Transaction.ID,
				log.FieldErrorType, log.ErrorTypeConflict)
			return Event{}, fmt.Errorf("%w: %s", ErrDuplicateID, act.Transaction.ID)
		}
		a = act
		ev = Event{Kind: EventAdded, Transaction: act.Transaction}

	case EditTransaction:
		i := indexOf(s.state.Transactions, act.Transaction.ID)
		if i < 0 {
			s.mu.Unlock()
			s.logger.WarnContext(ctx, "Edit of unknown transaction",
				log.FieldOperation, log.OpUpdate,
				log.FieldTransactionID, act.Transaction.ID,
				log.FieldErrorType, log.ErrorTypeNotFound)
			return Event{}, ErrTransactionNotFound
		}
		ev = Event{Kind: EventEdited, Transaction: act.Transaction}
		if ev.Transaction.Date.IsZero() {
			ev.Transaction.Date = s.state.Transactions[i].Date
		}

	case DeleteTransaction:
		i := indexOf(s.state.Transactions, act.ID)
		if i < 0 {
			s.mu.Unlock()
			return Event{}, nil
		}
		ev = Event{Kind: EventDeleted, Transaction: s.state.Transactions[i]}

	case SetFilters:
		s.state = Reduce(s.state, act)
		s.mu.Unlock()
		return Event{}, nil

	default:
		s.mu.Unlock()
		return Event{}, errors.New("ledger: unknown action")
	}

	s.state = Reduce(s.state, a)
	s.persist(ctx, a)
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.Notify(ctx, ev)
	}
	return ev, nil
}

// View derives the filtered list and summary from the current state.
func (s *Store) View() View {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()

	filtered, summary := core.Derive(st.Transactions, st.Filters, s.now())
	return View{
		Filtered: filtered,
		All:      append([]core.Transaction(nil), st.Transactions...),
		Summary:  summary,
		Filters:  st.Filters,
	}
}

// Transactions returns a copy of the full list, newest first.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.state.Transactions...)
}

// Filters returns the active filters.
func (s *Store) Filters() core.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Filters
}

// Summary is the summary of the filtered list.
func (s *Store) Summary() core.Summary {
	return s.View().Summary
}

// Find returns the transaction with id.
func (s *Store) Find(id string) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.state.Transactions, id); i >= 0 {
		return s.state.Transactions[i], true
	}
	return core.Transaction{}, false
}
