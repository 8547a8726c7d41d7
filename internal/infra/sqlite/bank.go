package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/siphor/siphor/internal/domain"
)

// ─── Bank Sub-ledger Operations ─────────────────────────────────────────────
// One bank record for the whole process: a demand balance row plus a table
// of term deposits.

// LoadBankState returns the full bank state. An untouched database reads as
// a zero balance with no deposits.
func (db *DB) LoadBankState() (domain.BankState, error) {
	state := domain.BankState{}

	err := db.db.QueryRow(`SELECT demand FROM bank_state WHERE id = 1`).Scan(&state.Demand)
	if err != nil && err != sql.ErrNoRows {
		return state, fmt.Errorf("load bank demand: %w", err)
	}

	rows, err := db.db.Query(`
		SELECT id, amount, start_date, maturity_date, rate
		FROM fixed_deposits ORDER BY start_date, id
	`)
	if err != nil {
		return state, fmt.Errorf("load fixed deposits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.FixedDeposit
		if err := rows.Scan(&d.ID, &d.Amount, &d.StartDate, &d.MaturityDate, &d.Rate); err != nil {
			return state, err
		}
		state.Fixed = append(state.Fixed, d)
	}
	return state, rows.Err()
}

// SetDemand stores the demand balance.
func (db *DB) SetDemand(demand int64) error {
	_, err := db.db.Exec(`
		INSERT INTO bank_state (id, demand) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET demand = excluded.demand
	`, demand)
	if err != nil {
		return fmt.Errorf("save bank demand: %w", err)
	}
	return nil
}

// InsertFixedDeposit adds a term deposit.
func (db *DB) InsertFixedDeposit(d domain.FixedDeposit) error {
	_, err := db.db.Exec(`
		INSERT INTO fixed_deposits (id, amount, start_date, maturity_date, rate)
		VALUES (?, ?, ?, ?, ?)
	`, d.ID, d.Amount, d.StartDate, d.MaturityDate, d.Rate)
	if err != nil {
		return fmt.Errorf("insert deposit %s: %w", d.ID, err)
	}
	return nil
}

// DeleteFixedDeposit removes a term deposit by id. Reports whether a row
// was actually deleted, so undo can distinguish a stale reference.
func (db *DB) DeleteFixedDeposit(id string) (bool, error) {
	res, err := db.db.Exec(`DELETE FROM fixed_deposits WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete deposit %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
