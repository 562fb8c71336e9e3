package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"finanse/internal/core"
)

// DefaultKey is the store key the transaction list is persisted under.
const DefaultKey = "expense-tracker-transactions"

// SnapshotVersion is the layout written by this package.
const SnapshotVersion = 1

// ErrUnsupportedSnapshot is returned for snapshots written by a newer layout.
var ErrUnsupportedSnapshot = errors.New("unsupported snapshot version")

type snapshot struct {
	Version      int                `json:"version"`
	Transactions []core.Transaction `json:"transactions"`
}

func encodeSnapshot(txs []core.Transaction) ([]byte, error) {
	if txs == nil {
		txs = []core.Transaction{}
	}
	return json.Marshal(snapshot{Version: SnapshotVersion, Transactions: txs})
}

// decodeSnapshot accepts the versioned envelope or a bare array (version 0).
func decodeSnapshot(raw []byte) ([]core.Transaction, int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, 0, nil
	}

	if trimmed[0] == '[' {
		var txs []core.Transaction
		if err := json.Unmarshal(trimmed, &txs); err != nil {
			return nil, 0, fmt.Errorf("decode transaction list: %w", err)
		}
		return txs, 0, nil
	}

	var snap snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, 0, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, snap.Version, fmt.Errorf("%w: %d", ErrUnsupportedSnapshot, snap.Version)
	}
	return snap.Transactions, snap.Version, nil
}
