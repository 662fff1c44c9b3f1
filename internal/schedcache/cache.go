// Package schedcache stores encoded event lists in a sqlite database, keyed by a
// fingerprint of everything the compilation depends on.
package schedcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/pulsegrid/internal/ctxlog"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS schedules (
    key        TEXT PRIMARY KEY,
    payload    BLOB NOT NULL,
    created_at INTEGER NOT NULL
)`

// Cache is a sqlite-backed store of compiled event lists.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at path.
func Open(ctx context.Context, path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open schedule cache %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot initialize schedule cache %s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Debug("Schedule cache opened.", "path", path)
	return &Cache{db: db}, nil
}

// Get returns the payload stored under key. The boolean is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx, `SELECT payload FROM schedules WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		ctxlog.FromContext(ctx).Debug("Schedule cache miss.", "key", key)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query schedule cache: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Schedule cache hit.", "key", key, "bytes", len(payload))
	return payload, true, nil
}

// Put stores payload under key, replacing an earlier entry.
func (c *Cache) Put(ctx context.Context, key string, payload []byte) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO schedules (key, payload, created_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at
    `, key, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write schedule cache: %w", err)
	}
	return nil
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key fingerprints the parts. The parts are length-prefixed so that different
// splits of the same text give different keys.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s", len(p), p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
