package export

import (
	"encoding/json"
	"io"
	"time"

	"finanse/internal/core"
)

// Backup is the JSON export document.
type Backup struct {
	ExportedAt   time.Time          `json:"exportedAt"`
	DateRange    Range              `json:"dateRange"`
	Summary      BackupSummary      `json:"summary"`
	Transactions []core.Transaction `json:"transactions"`
}

type BackupSummary struct {
	TotalTransactions int        `json:"totalTransactions"`
	TotalIncome       core.Money `json:"totalIncome"`
	TotalExpenses     core.Money `json:"totalExpenses"`
	Balance           core.Money `json:"balance"`
}

// NewBackup builds the export document. The summary covers txs only.
func NewBackup(txs []core.Transaction, r Range, now time.Time) Backup {
	s := core.Summarize(txs)
	if txs == nil {
		txs = []core.Transaction{}
	}
	return Backup{
		ExportedAt: now.UTC(),
		DateRange:  r,
		Summary: BackupSummary{
			TotalTransactions: len(txs),
			TotalIncome:       s.Income,
			TotalExpenses:     s.Expenses,
			Balance:           s.Balance,
		},
		Transactions: txs,
	}
}

// WriteJSON writes the indented backup document.
func WriteJSON(w io.Writer, txs []core.Transaction, r Range, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewBackup(txs, r, now))
}
