// Package sqlite persists the last fetched raw message batch so restarts
// and conditional upstream requests can reuse it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.MessageCache = (*Cache)(nil)

// schema holds one row per cached message plus a single metadata row. The
// cache always contains at most one batch; saving replaces it wholesale.
const schema = `
CREATE TABLE IF NOT EXISTS batch_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	etag TEXT NOT NULL DEFAULT '',
	fetched_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	pos INTEGER PRIMARY KEY,
	msg_id TEXT NOT NULL,
	sender_id TEXT NOT NULL,
	sender_name TEXT NOT NULL,
	text TEXT NOT NULL,
	ts DATETIME NOT NULL
);
`

// Cache is a SQLite-backed MessageCache.
type Cache struct {
	db   *sql.DB
	path string
}

// NewCache opens (or creates) the cache database at path. An empty path
// defaults to ~/.rosterqa/data/messages.db.
func NewCache(path string) (*Cache, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".rosterqa", "data", "messages.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db, path: path}, nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.path
}

// Load returns the cached batch, or domain.ErrNotFound when the cache is
// empty.
func (c *Cache) Load(ctx context.Context) (*domain.RawBatch, error) {
	var etag string
	var fetchedAt time.Time
	row := c.db.QueryRowContext(ctx, "SELECT etag, fetched_at FROM batch_meta WHERE id = 1")
	if err := row.Scan(&etag, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("loading batch metadata: %w", err)
	}

	rows, err := c.db.QueryContext(ctx,
		"SELECT msg_id, sender_id, sender_name, text, ts FROM messages ORDER BY pos")
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.RawMessage
	for rows.Next() {
		var m domain.RawMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return &domain.RawBatch{
		Messages:  messages,
		ETag:      etag,
		FetchedAt: fetchedAt,
	}, nil
}

// Save replaces the cached batch in one transaction.
func (c *Cache) Save(ctx context.Context, batch *domain.RawBatch) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages"); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO batch_meta (id, etag, fetched_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET etag = excluded.etag, fetched_at = excluded.fetched_at`,
		batch.ETag, batch.FetchedAt.UTC()); err != nil {
		return fmt.Errorf("saving batch metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO messages (pos, msg_id, sender_id, sender_name, text, ts) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range batch.Messages {
		if _, err := stmt.ExecContext(ctx, i, m.ID, m.SenderID, m.SenderName, m.Text, m.Timestamp.UTC()); err != nil {
			return fmt.Errorf("inserting message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
