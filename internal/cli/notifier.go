package cli

import (
	"context"
	"fmt"
	"io"

	"finanse/internal/ledger"
)

// ConsoleNotifier prints a styled confirmation line for every ledger event.
type ConsoleNotifier struct {
	Out io.Writer
}

func (n ConsoleNotifier) Notify(_ context.Context, e ledger.Event) {
	if n.Out == nil {
		return
	}
	fmt.Fprintln(n.Out, FormatSuccess(e.Message()))
}
