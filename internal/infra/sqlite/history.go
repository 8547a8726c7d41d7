package sqlite

import (
	"database/sql"
	"fmt"
)

// ─── Total-Score History Operations ─────────────────────────────────────────
// The history is a sparse map dateKey → cumulative total. Only dates where
// the total changes are stored; reads carry the nearest prior value forward.

// HistoryPointCount returns the number of stored points (anchor included).
func (db *DB) HistoryPointCount() (int, error) {
	var count int
	err := db.db.QueryRow(`SELECT COUNT(*) FROM score_history`).Scan(&count)
	return count, err
}

// LatestTotalAtOrBefore returns the cumulative total of the latest stored
// point at or before dateKey. ok is false when no such point exists.
func (db *DB) LatestTotalAtOrBefore(dateKey string) (total int, ok bool, err error) {
	err = db.db.QueryRow(`
		SELECT total FROM score_history
		WHERE date_key <= ? ORDER BY date_key DESC LIMIT 1
	`, dateKey).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("history lookup %s: %w", dateKey, err)
	}
	return total, true, nil
}

// UpsertHistoryPoint stores the cumulative total for one date.
func (db *DB) UpsertHistoryPoint(dateKey string, total int) error {
	_, err := db.db.Exec(`
		INSERT INTO score_history (date_key, total) VALUES (?, ?)
		ON CONFLICT(date_key) DO UPDATE SET total = excluded.total
	`, dateKey, total)
	if err != nil {
		return fmt.Errorf("save history point %s: %w", dateKey, err)
	}
	return nil
}

// ClearHistory drops every stored point. Used by rebuild before reseeding.
func (db *DB) ClearHistory() error {
	_, err := db.db.Exec(`DELETE FROM score_history`)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// HistoryPoints returns the full sparse map in date order.
func (db *DB) HistoryPoints() (map[string]int, error) {
	rows, err := db.db.Query(`SELECT date_key, total FROM score_history ORDER BY date_key`)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	points := make(map[string]int)
	for rows.Next() {
		var dateKey string
		var total int
		if err := rows.Scan(&dateKey, &total); err != nil {
			return nil, err
		}
		points[dateKey] = total
	}
	return points, rows.Err()
}
