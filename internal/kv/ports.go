// Package kv defines the persistent key-value port the ledger and planner
// store their state through.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrConflict is returned by Write when the key was written by someone else
// after it was read.
var ErrConflict = errors.New("stored value changed since it was read")

// Store is an opaque get/set of named values.
type Store interface {
	// Get returns the value stored under key. found is false when the key
	// has never been set.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

// VersionedStore keeps a revision per key so that concurrent writers, such
// as the CLI and the recurring worker, can detect each other. A key that was
// never set has revision 0.
type VersionedStore interface {
	Store

	GetRevision(ctx context.Context, key string) (value []byte, revision int64, found bool, err error)

	// SetIf stores value only while key is still at revision and returns the
	// new revision. Otherwise it fails with ErrConflict.
	SetIf(ctx context.Context, key string, value []byte, revision int64) (int64, error)
}

// Read returns the value under key and, when s is a VersionedStore, its revision.
func Read(ctx context.Context, s Store, key string) ([]byte, int64, bool, error) {
	if vs, ok := s.(VersionedStore); ok {
		return vs.GetRevision(ctx, key)
	}
	value, found, err := s.Get(ctx, key)
	return value, 0, found, err
}

// Write stores value under key. On a VersionedStore the write only succeeds
// while key is still at revision; plain stores are overwritten.
func Write(ctx context.Context, s Store, key string, value []byte, revision int64) (int64, error) {
	if vs, ok := s.(VersionedStore); ok {
		return vs.SetIf(ctx, key, value, revision)
	}
	if err := s.Set(ctx, key, value); err != nil {
		return revision, err
	}
	return revision + 1, nil
}

// ReadJSON decodes the value under key into a T. An absent key yields the
// zero T, found false and revision 0.
func ReadJSON[T any](ctx context.Context, s Store, key string) (out T, revision int64, found bool, err error) {
	raw, revision, found, err := Read(ctx, s, key)
	if err != nil {
		return out, 0, false, fmt.Errorf("get %s: %w", key, err)
	}
	if !found {
		return out, 0, false, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, revision, true, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, revision, true, nil
}
