// Package cache persists finished entry blocks in a SQLite database, keyed
// by item and export context. The assembler treats it as an opaque sink; a
// later export run with an unchanged item can reuse the stored block.
package cache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DB wraps the cache database connection.
type DB struct {
	db    *sql.DB
	runID string
}

// Open opens or creates the cache database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &DB{db: db, runID: uuid.NewString()}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			item_id  TEXT NOT NULL,
			context  TEXT NOT NULL,
			citekey  TEXT NOT NULL,
			block    TEXT NOT NULL,
			preamble TEXT,
			run_id   TEXT NOT NULL,
			stored_at INTEGER NOT NULL,
			PRIMARY KEY (item_id, context)
		);

		CREATE INDEX IF NOT EXISTS idx_entries_citekey ON entries(citekey);
	`
	_, err := db.Exec(schema)
	return err
}

// Store writes one finished block. An existing row for the same item and
// context is replaced.
func (d *DB) Store(itemID, context, citekey, block string, preamble []string) error {
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO entries (item_id, context, citekey, block, preamble, run_id, stored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, itemID, context, citekey, block, strings.Join(preamble, "\n"), d.runID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("storing entry %s: %w", citekey, err)
	}
	return nil
}

// Fetch returns the stored block for an item under a context, or ok=false.
func (d *DB) Fetch(itemID, context string) (string, bool, error) {
	var block string
	err := d.db.QueryRow(`
		SELECT block FROM entries WHERE item_id = ? AND context = ?
	`, itemID, context).Scan(&block)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fetching entry: %w", err)
	}
	return block, true, nil
}

// Clear drops all cached entries.
func (d *DB) Clear() error {
	if _, err := d.db.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}
