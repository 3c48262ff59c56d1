// Package statedb persists bookmarks and fetch state in SQLite. WAL mode
// plus a busy timeout let a TUI and CLI subcommands share the database;
// external writes are detected by polling the metadata last_modified stamp.
package statedb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion tracks the current database schema version.
// Bump this when adding migrations.
const SchemaVersion = 1

// StateDB wraps the SQLite database holding bookmark and fetch state.
// Thread-safe for concurrent use from multiple goroutines within one
// process; multiple OS processes share it via WAL mode.
type StateDB struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at dbPath with WAL mode and busy
// timeout.
func Open(dbPath string) (*StateDB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("statedb: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("statedb: open: %w", err)
	}

	// WAL mode: allows concurrent readers while writing
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("statedb: wal mode: %w", err)
	}

	// Busy timeout: wait up to 5s if another process holds a lock
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("statedb: busy timeout: %w", err)
	}

	return &StateDB{db: db}, nil
}

// Close checkpoints WAL and closes the database.
func (s *StateDB) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// DB returns the underlying sql.DB for advanced use cases (e.g., testing).
func (s *StateDB) DB() *sql.DB {
	return s.db
}

// Migrate creates tables if they don't exist and runs any pending migrations.
func (s *StateDB) Migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("statedb: begin migrate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// metadata table
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("statedb: create metadata: %w", err)
	}

	// bookmarks table; sort_order preserves insertion order
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS bookmarks (
			session_id TEXT PRIMARY KEY,
			sort_order INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("statedb: create bookmarks: %w", err)
	}

	// last successfully fetched schedule payload, for offline startup
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schedule_cache (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			payload    BLOB NOT NULL,
			etag       TEXT NOT NULL DEFAULT '',
			fetched_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("statedb: create schedule_cache: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)
	`, fmt.Sprintf("%d", SchemaVersion)); err != nil {
		return fmt.Errorf("statedb: set schema version: %w", err)
	}

	return tx.Commit()
}

// --- Bookmarks ---

// SaveBookmarks replaces the stored bookmark set in one transaction,
// preserving the given order, and touches the change stamp.
func (s *StateDB) SaveBookmarks(ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("statedb: begin save bookmarks: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM bookmarks"); err != nil {
		return fmt.Errorf("statedb: clear bookmarks: %w", err)
	}
	now := time.Now().Unix()
	for i, id := range ids {
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO bookmarks (session_id, sort_order, created_at) VALUES (?, ?, ?)",
			id, i, now,
		); err != nil {
			return fmt.Errorf("statedb: insert bookmark: %w", err)
		}
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES ('last_modified', ?)",
		fmt.Sprintf("%d", time.Now().UnixNano()),
	); err != nil {
		return fmt.Errorf("statedb: touch: %w", err)
	}

	return tx.Commit()
}

// LoadBookmarks returns the stored bookmark ids in insertion order.
// A missing or unreadable table yields an empty set, never an error the
// caller has to handle as fatal.
func (s *StateDB) LoadBookmarks() []string {
	rows, err := s.db.Query("SELECT session_id FROM bookmarks ORDER BY sort_order")
	if err != nil {
		return nil
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil
	}
	return ids
}

// --- Schedule cache ---

// SaveScheduleCache stores the last successfully fetched payload and its
// ETag so the next startup can render before the first fetch completes.
func (s *StateDB) SaveScheduleCache(payload []byte, etag string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO schedule_cache (id, payload, etag, fetched_at)
		VALUES (1, ?, ?, ?)
	`, payload, etag, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("statedb: save schedule cache: %w", err)
	}
	return nil
}

// LoadScheduleCache returns the cached payload, its ETag, and the fetch
// time. ok is false when no cache exists.
func (s *StateDB) LoadScheduleCache() (payload []byte, etag string, fetchedAt time.Time, ok bool) {
	var ts int64
	err := s.db.QueryRow(
		"SELECT payload, etag, fetched_at FROM schedule_cache WHERE id = 1",
	).Scan(&payload, &etag, &ts)
	if err != nil {
		return nil, "", time.Time{}, false
	}
	return payload, etag, time.Unix(ts, 0), true
}

// --- Metadata ---

// SetMeta sets a value in the metadata table.
func (s *StateDB) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta gets a value from the metadata table. Returns "" if not found.
func (s *StateDB) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Touch updates a metadata timestamp that other processes can poll to
// detect changes.
func (s *StateDB) Touch() error {
	return s.SetMeta("last_modified", fmt.Sprintf("%d", time.Now().UnixNano()))
}

// LastModified returns the last_modified timestamp from metadata.
func (s *StateDB) LastModified() (int64, error) {
	val, err := s.GetMeta("last_modified")
	if err != nil || val == "" {
		return 0, err
	}
	var ts int64
	_, err = fmt.Sscanf(val, "%d", &ts)
	return ts, err
}
