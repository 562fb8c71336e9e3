package ledger

import (
	"testing"
	"time"

	"finanse/internal/core"
)

func TestReduce(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	base := State{
		Transactions: []core.Transaction{
			{ID: "b", Description: "B", Date: d2},
			{ID: "a", Description: "A", Date: d1},
		},
		Filters: core.DefaultFilters(),
	}
	search := "x"

	tests := []struct {
		name    string
		action  Action
		wantIDs []string
		check   func(t *testing.T, got State)
	}{
		{
			name:    "add prepends",
			action:  AddTransaction{Transaction: core.Transaction{ID: "c"}},
			wantIDs: []string{"c", "b", "a"},
		},
		{
			name:    "edit replaces in place",
			action:  EditTransaction{Transaction: core.Transaction{ID: "a", Description: "A2"}},
			wantIDs: []string{"b", "a"},
			check: func(t *testing.T, got State) {
				if got.Transactions[1].Description != "A2" {
					t.Errorf("description = %q, want A2", got.Transactions[1].Description)
				}
				if !got.Transactions[1].Date.Equal(d1) {
					t.Errorf("date = %v, want %v", got.Transactions[1].Date, d1)
				}
			},
		},
		{
			name:    "edit unknown is a no-op",
			action:  EditTransaction{Transaction: core.Transaction{ID: "zzz"}},
			wantIDs: []string{"b", "a"},
		},
		{
			name:    "delete removes",
			action:  DeleteTransaction{ID: "b"},
			wantIDs: []string{"a"},
		},
		{
			name:    "delete unknown is a no-op",
			action:  DeleteTransaction{ID: "zzz"},
			wantIDs: []string{"b", "a"},
		},
		{
			name:    "set filters leaves the list",
			action:  SetFilters{Patch: core.FilterPatch{Search: &search}},
			wantIDs: []string{"b", "a"},
			check: func(t *testing.T, got State) {
				if got.Filters.Search != "x" || got.Filters.Type != core.All {
					t.Errorf("filters = %+v", got.Filters)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(base, tt.action)

			if len(got.Transactions) != len(tt.wantIDs) {
				t.Fatalf("got %d transactions, want %d", len(got.Transactions), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got.Transactions[i].ID != id {
					t.Errorf("transactions[%d].ID = %q, want %q", i, got.Transactions[i].ID, id)
				}
			}
			if tt.check != nil {
				tt.check(t, got)
			}

			if base.Transactions[0].ID != "b" || base.Transactions[1].Description != "A" || len(base.Transactions) != 2 {
				t.Fatalf("input state was modified: %+v", base.Transactions)
			}
		})
	}
}

func TestDecodeSnapshot(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantCount   int
		wantVersion int
		wantErr     bool
	}{
		{name: "envelope", raw: `{"version":1,"transactions":[{"id":"1"}]}`, wantCount: 1, wantVersion: 1},
		{name: "bare array", raw: ` [{"id":"1"},{"id":"2"}]`, wantCount: 2, wantVersion: 0},
		{name: "empty", raw: "", wantCount: 0},
		{name: "null", raw: "null", wantCount: 0},
		{name: "future version", raw: `{"version":2,"transactions":[]}`, wantVersion: 2, wantErr: true},
		{name: "garbage", raw: "[{", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, version, err := decodeSnapshot([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(txs) != tt.wantCount {
				t.Errorf("count = %d, want %d", len(txs), tt.wantCount)
			}
			if version != tt.wantVersion {
				t.Errorf("version = %d, want %d", version, tt.wantVersion)
			}
		})
	}
}
