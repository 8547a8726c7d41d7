// Package goals tracks weekly goal progress. Progress is never incremented in
// place: every change triggers a full recount of the goal's items across all
// seven days of the week, so the cached count can only drift until the next
// mutation, never permanently.
//
// Reward grants are a one-way latch per goal per week. The latch clears only
// when the reward entry itself is deleted from the ledger, so dropping below
// the target after a grant does not claw the reward back.
package goals

import (
	"fmt"

	"github.com/siphor/siphor/internal/domain"
	"github.com/siphor/siphor/internal/infra/catalog"
	"github.com/siphor/siphor/internal/infra/observability"
	"github.com/siphor/siphor/internal/infra/sqlite"
)

// Service recounts and persists weekly goal progress.
type Service struct {
	db  *sqlite.DB
	cat *catalog.Catalog
}

// New creates a goals service.
func New(db *sqlite.DB, cat *catalog.Catalog) *Service {
	return &Service{db: db, cat: cat}
}

// WeekState returns the stored progress for a week.
func (s *Service) WeekState(weekKey string) (domain.WeekState, error) {
	return s.db.LoadWeekState(weekKey)
}

// RewardID returns the deterministic id of a goal's reward entry for a week.
// Granting is idempotent because the id never changes.
func RewardID(goalID, weekKey string) string {
	return "weekly-" + goalID + "-" + weekKey
}

// CountInWeek recounts the goal's items across every day of the week.
// Synthesized reward entries are excluded so a reward can never count toward
// the goal that granted it.
func (s *Service) CountInWeek(weekKey, goalID string) (int, error) {
	count := 0
	for _, dateKey := range domain.WeekDates(weekKey) {
		ledger, err := s.db.LoadDayLedger(dateKey)
		if err != nil {
			return 0, fmt.Errorf("recount %s: %w", dateKey, err)
		}
		for _, e := range ledger.Gains {
			if e.WeeklyGoalID == goalID && !e.IsReward() {
				count++
			}
		}
	}
	return count, nil
}

// Recalculate recounts one goal for the week containing dateKey and persists
// the result. When the recount crosses the target and the goal has not been
// rewarded this week, it returns the reward entry to append to dateKey's
// ledger; the caller owns that append. Returns nil when no grant is due.
func (s *Service) Recalculate(dateKey, goalID string) (*domain.Entry, error) {
	goal := s.cat.GoalByID(goalID)
	if goal == nil {
		return nil, domain.ErrGoalNotFound
	}
	weekKey := domain.WeekKey(dateKey)

	count, err := s.CountInWeek(weekKey, goalID)
	if err != nil {
		return nil, err
	}
	state, err := s.db.LoadWeekState(weekKey)
	if err != nil {
		return nil, err
	}
	current := state.Goals[goalID]
	observability.GoalRecalculations.Inc()

	shouldReward := count >= goal.TargetCount && !current.Rewarded
	progress := domain.GoalProgress{
		Count:    count,
		Rewarded: current.Rewarded || shouldReward,
	}
	if err := s.db.UpsertGoalProgress(weekKey, goalID, progress); err != nil {
		return nil, err
	}
	if !shouldReward {
		return nil, nil
	}

	observability.RewardsGranted.Inc()
	rewardID := RewardID(goalID, weekKey)
	points := goal.RewardPoints
	return &domain.Entry{
		ID:             rewardID,
		Name:           goal.Name + " weekly bonus",
		ScoreType:      domain.ScoreGain,
		FixedScore:     &points,
		CategoryKey:    domain.CategoryWeeklyGoal,
		WeeklyGoalID:   goalID,
		WeeklyRewardID: rewardID,
	}, nil
}

// RecountOnly refreshes the stored count without touching the reward latch.
// Used after removing a goal item: the count drops but an already-granted
// reward stays.
func (s *Service) RecountOnly(dateKey, goalID string) error {
	if s.cat.GoalByID(goalID) == nil {
		return domain.ErrGoalNotFound
	}
	weekKey := domain.WeekKey(dateKey)
	count, err := s.CountInWeek(weekKey, goalID)
	if err != nil {
		return err
	}
	state, err := s.db.LoadWeekState(weekKey)
	if err != nil {
		return err
	}
	current := state.Goals[goalID]
	observability.GoalRecalculations.Inc()
	return s.db.UpsertGoalProgress(weekKey, goalID, domain.GoalProgress{
		Count:    count,
		Rewarded: current.Rewarded,
	})
}

// ClearReward resets the reward latch for a goal, keeping the count. Called
// when the reward entry is deleted so the goal can grant again this week.
func (s *Service) ClearReward(weekKey, goalID string) error {
	state, err := s.db.LoadWeekState(weekKey)
	if err != nil {
		return err
	}
	current := state.Goals[goalID]
	return s.db.UpsertGoalProgress(weekKey, goalID, domain.GoalProgress{
		Count:    current.Count,
		Rewarded: false,
	})
}

// ValidateWeek reconciles stored progress for the week containing dateKey
// against the actual ledgers. Counts are recounted for every goal in the
// catalog, and a rewarded latch with no surviving reward entry anywhere in
// the week is cleared. Run on day load to self-heal after partial writes.
func (s *Service) ValidateWeek(dateKey string) (domain.WeekState, error) {
	weekKey := domain.WeekKey(dateKey)

	rewardPresent := make(map[string]bool)
	for _, day := range domain.WeekDates(weekKey) {
		ledger, err := s.db.LoadDayLedger(day)
		if err != nil {
			return domain.WeekState{}, err
		}
		for _, e := range ledger.Gains {
			if e.IsReward() && e.WeeklyGoalID != "" {
				rewardPresent[e.WeeklyGoalID] = true
			}
		}
	}

	state, err := s.db.LoadWeekState(weekKey)
	if err != nil {
		return domain.WeekState{}, err
	}

	changed := false
	for _, goal := range s.cat.Goals() {
		count, err := s.CountInWeek(weekKey, goal.ID)
		if err != nil {
			return domain.WeekState{}, err
		}
		current := state.Goals[goal.ID]
		next := domain.GoalProgress{Count: count, Rewarded: current.Rewarded}
		if next.Rewarded && !rewardPresent[goal.ID] {
			next.Rewarded = false
		}
		if next != current {
			state.Goals[goal.ID] = next
			changed = true
		}
	}
	if changed {
		if err := s.db.SaveWeekState(weekKey, state); err != nil {
			return domain.WeekState{}, err
		}
	}
	return state, nil
}
