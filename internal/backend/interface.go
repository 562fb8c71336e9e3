// Package backend opens the kv.Store selected by configuration.
package backend

import (
	"context"

	"finanse/internal/kv"
)

// CleanupFunc releases whatever the store holds open.
type CleanupFunc func() error

// BackendResult is an opened store plus its optional cleanup.
type BackendResult struct {
	Store   kv.Store
	Cleanup CleanupFunc
}

// Close runs Cleanup when there is one. Safe on a nil result.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory opens a store for a backend config.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config selects a backend and carries the settings it needs.
type Config struct {
	Type BackendType

	// SQLiteDBPath is the database file of the sqlite backend.
	SQLiteDBPath string

	// SeedFile optionally preloads the memory backend from a JSON object
	// of key to value.
	SeedFile string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	for _, t := range GetBackendTypes() {
		if bt == t {
			return true
		}
	}
	return false
}
