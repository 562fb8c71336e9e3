package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"finanse/internal/kv"
)

// SQLiteRepository is a kv.VersionedStore backed by a single SQLite table.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under concurrent Set calls
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements kv.Store
func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get entry %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements kv.Store
func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, created_at, updated_at, revision)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at,
			revision = kv_entries.revision + 1`,
		key, value, now, now)
	if err != nil {
		return fmt.Errorf("set entry %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Entry saved to SQLite",
		"key", key,
		"bytes", len(value))
	return nil
}

// GetRevision implements kv.VersionedStore
func (r *SQLiteRepository) GetRevision(ctx context.Context, key string) ([]byte, int64, bool, error) {
	var (
		value    []byte
		revision int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT value, revision FROM kv_entries WHERE key = ?`, key).Scan(&value, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("get entry %s: %w", key, err)
	}
	return value, revision, true, nil
}

// SetIf implements kv.VersionedStore. Revision 0 only inserts a new key.
func (r *SQLiteRepository) SetIf(ctx context.Context, key string, value []byte, revision int64) (int64, error) {
	now := time.Now().UTC()
	var (
		res sql.Result
		err error
	)
	if revision == 0 {
		res, err = r.db.ExecContext(ctx, `
			INSERT INTO kv_entries (key, value, created_at, updated_at, revision)
			VALUES (?, ?, ?, ?, 1)
			ON CONFLICT(key) DO NOTHING`,
			key, value, now, now)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE kv_entries
			SET value = ?, updated_at = ?, revision = revision + 1
			WHERE key = ? AND revision = ?`,
			value, now, key, revision)
	}
	if err != nil {
		return revision, fmt.Errorf("set entry %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return revision, fmt.Errorf("set entry %s: %w", key, err)
	}
	if n == 0 {
		return revision, fmt.Errorf("%w: %s", kv.ErrConflict, key)
	}

	slog.DebugContext(ctx, "Entry saved to SQLite",
		"key", key,
		"bytes", len(value),
		"revision", revision+1)
	return revision + 1, nil
}
