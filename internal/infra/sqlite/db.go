// Package sqlite persists the four ledger namespaces in one SQLite database:
// day ledgers, weekly goal progress, the sparse total-score history, and the
// bank sub-ledger. Day ledgers stay key-value (date key → JSON payload) — the
// store holds no derived logic.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database under dir and applies migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	path := filepath.Join(dir, "siphor.db")

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Single-writer by contract; one connection avoids SQLITE_BUSY churn.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	db := &DB{db: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.db.Close() }

// migrate applies the schema. Each string is a single SQL statement
// (SQLite executes one at a time).
func (db *DB) migrate() error {
	for _, stmt := range migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func migrations() []string {
	return []string{
		// Per-day ledger records, pure key-value
		`CREATE TABLE IF NOT EXISTS day_ledgers (
			date_key   TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Weekly goal progress cache (count derived, rewarded latched)
		`CREATE TABLE IF NOT EXISTS weekly_goals (
			week_key TEXT NOT NULL,
			goal_id  TEXT NOT NULL,
			count    INTEGER NOT NULL DEFAULT 0,
			rewarded INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (week_key, goal_id)
		)`,

		// Sparse cumulative total history, anchored at 1970-01-01
		`CREATE TABLE IF NOT EXISTS score_history (
			date_key TEXT PRIMARY KEY,
			total    INTEGER NOT NULL
		)`,

		// Bank sub-ledger: singleton demand balance plus term deposits
		`CREATE TABLE IF NOT EXISTS bank_state (
			id     INTEGER PRIMARY KEY CHECK (id = 1),
			demand INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS fixed_deposits (
			id            TEXT PRIMARY KEY,
			amount        INTEGER NOT NULL,
			start_date    TEXT NOT NULL,
			maturity_date TEXT NOT NULL,
			rate          REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fixed_maturity ON fixed_deposits(maturity_date)`,

		// Weekly bounty checklists
		`CREATE TABLE IF NOT EXISTS weekly_bounties (
			week_key       TEXT NOT NULL,
			id             TEXT NOT NULL,
			title          TEXT NOT NULL,
			points         INTEGER NOT NULL,
			completed_date TEXT,
			PRIMARY KEY (week_key, id)
		)`,
	}
}
