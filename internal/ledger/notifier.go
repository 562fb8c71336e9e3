package ledger

import (
	"context"

	"finanse/internal/core"
	"finanse/internal/log"
)

// EventKind names a successful store mutation.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventEdited  EventKind = "edited"
	EventDeleted EventKind = "deleted"
)

// Event describes a mutation after it has been applied.
type Event struct {
	Kind        EventKind
	Transaction core.Transaction
}

// Message returns the user-facing confirmation for the event.
func (e Event) Message() string {
	switch e.Kind {
	case EventAdded:
		return "Transakcja została pomyślnie dodana!"
	case EventEdited:
		return "Transakcja została zaktualizowana!"
	case EventDeleted:
		return "Usunięto transakcję: " + e.Transaction.Description
	default:
		return string(e.Kind)
	}
}

// Notifier is told about every applied mutation. Notify is called outside
// the store lock, so it may read from the store.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event)

func (f NotifierFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }

// LogNotifier writes one structured line per event.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(ctx context.Context, e Event) {
	if n.Logger == nil {
		return
	}
	t := e.Transaction
	n.Logger.InfoContext(ctx, e.Message(),
		log.FieldOperation, string(e.Kind),
		log.FieldTransactionID, t.ID,
		log.FieldAmountCents, t.Amount.Cents,
		log.FieldType, string(t.Type),
		log.FieldCategory, t.Category,
	)
}
