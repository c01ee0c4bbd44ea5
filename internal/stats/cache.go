package stats

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Cache stores statistics snapshots in sqlite, keyed by date range.
type Cache struct {
	db *sql.DB
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS stats_cache (
	range_key  TEXT PRIMARY KEY,
	fetched_at TEXT NOT NULL,
	payload    TEXT NOT NULL
);
`

// OpenCache opens (creating if needed) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open stats cache: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init stats cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

func rangeKey(from, to string) string {
	return from + ".." + to
}

// Put stores a snapshot for the date range, replacing any previous one.
func (c *Cache) Put(from, to string, ov *Overview) error {
	payload, err := json.Marshal(ov)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(`
		INSERT INTO stats_cache (range_key, fetched_at, payload) VALUES (?, ?, ?)
		ON CONFLICT (range_key) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			payload = excluded.payload`,
		rangeKey(from, to), time.Now().UTC().Format(time.RFC3339), string(payload))
	return err
}

// Get returns the cached snapshot for the date range, or (nil, nil) when
// none exists.
func (c *Cache) Get(from, to string) (*Overview, error) {
	var payload string
	err := c.db.QueryRow(`SELECT payload FROM stats_cache WHERE range_key = ?`, rangeKey(from, to)).
		Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ov Overview
	if err := json.Unmarshal([]byte(payload), &ov); err != nil {
		return nil, err
	}
	return &ov, nil
}
