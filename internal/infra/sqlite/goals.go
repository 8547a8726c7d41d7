package sqlite

import (
	"fmt"

	"github.com/siphor/siphor/internal/domain"
)

// ─── Weekly Goal Progress Operations ────────────────────────────────────────

// LoadWeekState returns all goal progress for one week. Missing weeks read
// as an empty (but non-nil) goal map.
func (db *DB) LoadWeekState(weekKey string) (domain.WeekState, error) {
	state := domain.WeekState{Goals: make(map[string]domain.GoalProgress)}

	rows, err := db.db.Query(
		`SELECT goal_id, count, rewarded FROM weekly_goals WHERE week_key = ?`, weekKey,
	)
	if err != nil {
		return state, fmt.Errorf("load week %s: %w", weekKey, err)
	}
	defer rows.Close()

	for rows.Next() {
		var goalID string
		var count, rewarded int
		if err := rows.Scan(&goalID, &count, &rewarded); err != nil {
			return state, err
		}
		state.Goals[goalID] = domain.GoalProgress{Count: count, Rewarded: rewarded == 1}
	}
	return state, rows.Err()
}

// UpsertGoalProgress saves one goal's progress for a week.
func (db *DB) UpsertGoalProgress(weekKey, goalID string, p domain.GoalProgress) error {
	rewarded := 0
	if p.Rewarded {
		rewarded = 1
	}
	_, err := db.db.Exec(`
		INSERT INTO weekly_goals (week_key, goal_id, count, rewarded)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(week_key, goal_id) DO UPDATE SET
			count    = excluded.count,
			rewarded = excluded.rewarded
	`, weekKey, goalID, p.Count, rewarded)
	if err != nil {
		return fmt.Errorf("save goal %s/%s: %w", weekKey, goalID, err)
	}
	return nil
}

// SaveWeekState overwrites all goal progress for a week.
func (db *DB) SaveWeekState(weekKey string, state domain.WeekState) error {
	if _, err := db.db.Exec(`DELETE FROM weekly_goals WHERE week_key = ?`, weekKey); err != nil {
		return fmt.Errorf("clear week %s: %w", weekKey, err)
	}
	for goalID, p := range state.Goals {
		if err := db.UpsertGoalProgress(weekKey, goalID, p); err != nil {
			return err
		}
	}
	return nil
}

// ListWeekStates returns goal progress for every stored week, keyed by week.
// Used by export.
func (db *DB) ListWeekStates() (map[string]domain.WeekState, error) {
	rows, err := db.db.Query(`SELECT week_key, goal_id, count, rewarded FROM weekly_goals ORDER BY week_key`)
	if err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}
	defer rows.Close()

	weeks := make(map[string]domain.WeekState)
	for rows.Next() {
		var weekKey, goalID string
		var count, rewarded int
		if err := rows.Scan(&weekKey, &goalID, &count, &rewarded); err != nil {
			return nil, err
		}
		state, ok := weeks[weekKey]
		if !ok {
			state = domain.WeekState{Goals: make(map[string]domain.GoalProgress)}
		}
		state.Goals[goalID] = domain.GoalProgress{Count: count, Rewarded: rewarded == 1}
		weeks[weekKey] = state
	}
	return weeks, rows.Err()
}
