package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/siphor/siphor/internal/domain"
)

// ─── Weekly Bounty Operations ───────────────────────────────────────────────

// ListBounties returns all bounties for one week in insertion order.
func (db *DB) ListBounties(weekKey string) ([]domain.Bounty, error) {
	rows, err := db.db.Query(`
		SELECT id, title, points, completed_date
		FROM weekly_bounties WHERE week_key = ? ORDER BY rowid
	`, weekKey)
	if err != nil {
		return nil, fmt.Errorf("list bounties %s: %w", weekKey, err)
	}
	defer rows.Close()

	var bounties []domain.Bounty
	for rows.Next() {
		var b domain.Bounty
		var completed sql.NullString
		if err := rows.Scan(&b.ID, &b.Title, &b.Points, &completed); err != nil {
			return nil, err
		}
		if completed.Valid {
			b.CompletedDate = completed.String
		}
		bounties = append(bounties, b)
	}
	return bounties, rows.Err()
}

// GetBounty returns one bounty. ok is false when absent.
func (db *DB) GetBounty(weekKey, id string) (b domain.Bounty, ok bool, err error) {
	var completed sql.NullString
	err = db.db.QueryRow(`
		SELECT id, title, points, completed_date
		FROM weekly_bounties WHERE week_key = ? AND id = ?
	`, weekKey, id).Scan(&b.ID, &b.Title, &b.Points, &completed)
	if err == sql.ErrNoRows {
		return domain.Bounty{}, false, nil
	}
	if err != nil {
		return domain.Bounty{}, false, fmt.Errorf("get bounty %s/%s: %w", weekKey, id, err)
	}
	if completed.Valid {
		b.CompletedDate = completed.String
	}
	return b, true, nil
}

// UpsertBounty inserts or updates a bounty for a week.
func (db *DB) UpsertBounty(weekKey string, b domain.Bounty) error {
	var completed interface{}
	if b.CompletedDate != "" {
		completed = b.CompletedDate
	}
	_, err := db.db.Exec(`
		INSERT INTO weekly_bounties (week_key, id, title, points, completed_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(week_key, id) DO UPDATE SET
			title          = excluded.title,
			points         = excluded.points,
			completed_date = excluded.completed_date
	`, weekKey, b.ID, b.Title, b.Points, completed)
	if err != nil {
		return fmt.Errorf("save bounty %s/%s: %w", weekKey, b.ID, err)
	}
	return nil
}

// ListBountyWeeks returns every week's bounties, keyed by week. Used by
// export.
func (db *DB) ListBountyWeeks() (map[string][]domain.Bounty, error) {
	rows, err := db.db.Query(`
		SELECT week_key, id, title, points, completed_date
		FROM weekly_bounties ORDER BY week_key, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("list bounty weeks: %w", err)
	}
	defer rows.Close()

	weeks := make(map[string][]domain.Bounty)
	for rows.Next() {
		var weekKey string
		var b domain.Bounty
		var completed sql.NullString
		if err := rows.Scan(&weekKey, &b.ID, &b.Title, &b.Points, &completed); err != nil {
			return nil, err
		}
		if completed.Valid {
			b.CompletedDate = completed.String
		}
		weeks[weekKey] = append(weeks[weekKey], b)
	}
	return weeks, rows.Err()
}
