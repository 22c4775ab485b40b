// Package sqlite persists the local cache in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mcoot/leaderboard/internal/cache"
	"github.com/mcoot/leaderboard/internal/cache/sqlite/migrations"
)

// Cache is a cache.Cache backed by a SQLite table
type Cache struct {
	db *sql.DB
}

// Ensure Cache implements cache.Cache
var _ cache.Cache = (*Cache)(nil)

// RunMigrations creates the cache schema
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the cache database at dsn and migrates it
func Open(ctx context.Context, dsn string) (*Cache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate cache: %w", err)
	}
	return New(db), nil
}

// New wraps an already migrated database
func New(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// Close closes the underlying database
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Read(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM cache WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache[%s]: %w", key, err)
	}
	return value, true, nil
}

func (c *Cache) Write(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write cache[%s]: %w", key, err)
	}
	return nil
}

func (c *Cache) Clear(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to clear cache[%s]: %w", key, err)
	}
	return nil
}
