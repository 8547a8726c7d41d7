package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/siphor/siphor/internal/domain"
)

// ─── Day Ledger Operations ──────────────────────────────────────────────────

// DayRecord pairs a date key with its ledger, for full scans and backups.
type DayRecord struct {
	DateKey string           `json:"dateKey"`
	State   domain.DayLedger `json:"state"`
}

// LoadDayLedger returns the ledger for a date. Absence means "no activity
// that day": an empty ledger, never an error.
func (db *DB) LoadDayLedger(dateKey string) (domain.DayLedger, error) {
	var payload string
	err := db.db.QueryRow(
		`SELECT payload FROM day_ledgers WHERE date_key = ?`, dateKey,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return domain.DayLedger{}, nil
	}
	if err != nil {
		return domain.DayLedger{}, fmt.Errorf("load day %s: %w", dateKey, err)
	}

	var ledger domain.DayLedger
	if err := json.Unmarshal([]byte(payload), &ledger); err != nil {
		// A torn or corrupted record degrades to an empty day rather than
		// poisoning every aggregate recompute.
		return domain.DayLedger{}, nil
	}
	return ledger, nil
}

// SaveDayLedger overwrites the full record for a date. Idempotent.
func (db *DB) SaveDayLedger(dateKey string, ledger domain.DayLedger) error {
	payload, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("encode day %s: %w", dateKey, err)
	}
	_, err = db.db.Exec(`
		INSERT INTO day_ledgers (date_key, payload, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(date_key) DO UPDATE SET
			payload    = excluded.payload,
			updated_at = datetime('now')
	`, dateKey, string(payload))
	if err != nil {
		return fmt.Errorf("save day %s: %w", dateKey, err)
	}
	return nil
}

// DeleteDayLedger removes a date's record entirely.
func (db *DB) DeleteDayLedger(dateKey string) error {
	_, err := db.db.Exec(`DELETE FROM day_ledgers WHERE date_key = ?`, dateKey)
	if err != nil {
		return fmt.Errorf("delete day %s: %w", dateKey, err)
	}
	return nil
}

// ListDayLedgers returns every stored day in date order. Used by every
// aggregate recompute — recompute-from-scratch is the design here.
func (db *DB) ListDayLedgers() ([]DayRecord, error) {
	rows, err := db.db.Query(`SELECT date_key, payload FROM day_ledgers ORDER BY date_key`)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	defer rows.Close()

	var records []DayRecord
	for rows.Next() {
		var r DayRecord
		var payload string
		if err := rows.Scan(&r.DateKey, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &r.State); err != nil {
			// Skip corrupted rows; they read as empty days elsewhere too.
			continue
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
