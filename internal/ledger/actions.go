package ledger

import "finanse/internal/core"

// State is the full ledger state: the newest-first transaction list and the
// active filters. Filters are never persisted.
type State struct {
	Transactions []core.Transaction
	Filters      core.Filters
}

// Action is one of AddTransaction, EditTransaction, DeleteTransaction or SetFilters.
type Action interface {
	action()
}

type (
	// AddTransaction prepends a fully-formed transaction.
	AddTransaction struct {
		Transaction core.Transaction
	}

	// EditTransaction replaces the transaction with the same ID.
	// A zero Date keeps the stored date.
	EditTransaction struct {
		Transaction core.Transaction
	}

	// DeleteTransaction removes the transaction with ID.
	DeleteTransaction struct {
		ID string
	}

	// SetFilters shallow-merges Patch into the active filters.
	SetFilters struct {
		Patch core.FilterPatch
	}
)

func (AddTransaction) action()    {}
func (EditTransaction) action()   {}
func (DeleteTransaction) action() {}
func (SetFilters) action()        {}

// InitialState holds no transactions and matches everything.
func InitialState() State {
	return State{Filters: core.DefaultFilters()}
}

// Reduce returns the state after applying a to s. It never modifies the
// slices reachable from s. Edits and deletes of unknown IDs return s as is.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case AddTransaction:
		txs := make([]core.Transaction, 0, len(s.Transactions)+1)
		txs = append(txs, a.Transaction)
		s.Transactions = append(txs, s.Transactions...)

	case EditTransaction:
		i := indexOf(s.Transactions, a.Transaction.ID)
		if i < 0 {
			return s
		}
		updated := a.Transaction
		if updated.Date.IsZero() {
			updated.Date = s.Transactions[i].Date
		}
		txs := append([]core.Transaction(nil), s.Transactions...)
		txs[i] = updated
		s.Transactions = txs

	case DeleteTransaction:
		i := indexOf(s.Transactions, a.ID)
		if i < 0 {
			return s
		}
		txs := make([]core.Transaction, 0, len(s.Transactions)-1)
		txs = append(txs, s.Transactions[:i]...)
		s.Transactions = append(txs, s.Transactions[i+1:]...)

	case SetFilters:
		s.Filters = s.Filters.Merge(a.Patch)
	}
	return s
}

func indexOf(txs []core.Transaction, id string) int {
	for i, t := range txs {
		if t.ID == id {
			return i
		}
	}
	return -1
}
