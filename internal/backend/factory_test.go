package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanse/internal/config"
	"finanse/internal/log"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", MemorySeedFile: "seed.json"})
	require.NoError(t, err)
	assert.Equal(t, Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", SeedFile: "seed.json"}, cfg)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Type: "redis"}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}

func TestCreateBackend_Memory(t *testing.T) {
	ctx := context.Background()
	seed := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`{"greeting":"hello"}`), 0o600))

	res, err := NewFactory(log.Discard()).CreateBackend(ctx, Config{Type: MemoryBackend, SeedFile: seed})
	require.NoError(t, err)
	defer func() { require.NoError(t, res.Close()) }()

	raw, found, err := res.Store.Get(ctx, "greeting")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `"hello"`, string(raw))
}

func TestCreateBackend_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "finanse.db")

	res, err := NewFactory(log.Discard()).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)

	require.NoError(t, res.Store.Set(ctx, "k", []byte("v")))
	require.NoError(t, res.Close())

	res, err = NewFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	defer res.Close()
	raw, found, err := res.Store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", string(raw))
}

func TestCreateBackend_Invalid(t *testing.T) {
	_, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Type: "postgres"})
	assert.Error(t, err)
}
