// Package memory is a process-local kv.VersionedStore for tests and the
// memory backend.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"finanse/internal/kv"
)

type entry struct {
	value    []byte
	revision int64
}

type Store struct {
	mu    sync.Mutex
	items map[string]entry
}

func New() *Store {
	return &Store{items: make(map[string]entry)}
}

// NewFromFile seeds a store from a JSON object mapping keys to values.
// A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed map[string]json.RawMessage
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for k, v := range seed {
		s.items[k] = entry{value: bytes.Clone(v), revision: 1}
	}
	return s, nil
}

// Get returns a copy of the stored value.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, _, found, err := s.GetRevision(ctx, key)
	return value, found, err
}

func (s *Store) GetRevision(_ context.Context, key string) ([]byte, int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return nil, 0, false, nil
	}
	return bytes.Clone(e.value), e.revision, true, nil
}

// Set stores a copy of value unconditionally.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = entry{value: bytes.Clone(value), revision: s.items[key].revision + 1}
	return nil
}

func (s *Store) SetIf(_ context.Context, key string, value []byte, revision int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.items[key].revision
	if current != revision {
		return current, fmt.Errorf("%w: %s at revision %d, expected %d", kv.ErrConflict, key, current, revision)
	}
	s.items[key] = entry{value: bytes.Clone(value), revision: current + 1}
	return current + 1, nil
}

// Keys returns the stored keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
