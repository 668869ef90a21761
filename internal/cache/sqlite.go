package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteCache keeps every entry in one SQLite database file.
type SQLiteCache struct {
	db *sql.DB
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS lookup_cache (
	namespace TEXT NOT NULL,
	key       TEXT NOT NULL,
	value     TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (namespace, key)
);
`

// NewSQLiteCache opens the database at dsn in WAL mode and creates the table.
func NewSQLiteCache(ctx context.Context, dsn string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: sqlite open")
	}
	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		sqliteMigration,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "cache: sqlite exec %s", stmt)
		}
	}
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Get(ctx context.Context, key Key) (json.RawMessage, bool, error) {
	var value string
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM lookup_cache WHERE namespace = ? AND key = ?`,
		key.Namespace, key.Hash,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "cache: sqlite get %s", key)
	}
	if !json.Valid([]byte(value)) {
		return nil, false, nil
	}
	return json.RawMessage(value), true, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key Key, value json.RawMessage) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO lookup_cache (namespace, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (namespace, key) DO NOTHING`,
		key.Namespace, key.Hash, string(value),
	)
	return eris.Wrapf(err, "cache: sqlite set %s", key)
}

// Close closes the underlying database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
