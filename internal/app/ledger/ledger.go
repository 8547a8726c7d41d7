// Package ledger orchestrates day-ledger mutations. Every mutation follows
// the same sequence:
//
//  1. Refuse edits to any day but today.
//  2. Mutate the day's entry lists.
//  3. Persist the day.
//  4. Recount affected weekly goals (possibly appending a reward entry).
//  5. Record the day's new score in the total-score history.
//
// The bank, goals, and history services are leaves; this package is the only
// one that calls across them, so cross-store sequencing lives in one place.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/siphor/siphor/internal/app/bank"
	"github.com/siphor/siphor/internal/app/goals"
	"github.com/siphor/siphor/internal/app/history"
	"github.com/siphor/siphor/internal/domain"
	"github.com/siphor/siphor/internal/infra/catalog"
	"github.com/siphor/siphor/internal/infra/observability"
	"github.com/siphor/siphor/internal/infra/sqlite"
)

// DropPayload is the wire form of a drop: a catalog item reference plus the
// fields the item carries onto the board.
type DropPayload struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	ScoreType    domain.ScoreType   `json:"scoreType"`
	Criteria     []domain.Criterion `json:"criteria,omitempty"`
	BaseType     string             `json:"baseType,omitempty"`
	Score        *int               `json:"score,omitempty"`
	CategoryKey  string             `json:"categoryKey,omitempty"`
	WeeklyGoalID string             `json:"weeklyGoalId,omitempty"`
}

// FocusSummary is the day's accumulated target-gain time and the focus score
// it earns.
type FocusSummary struct {
	TotalSeconds int64 `json:"totalSeconds"`
	Score        int   `json:"score"`
}

// Service owns all day-ledger mutations.
type Service struct {
	db    *sqlite.DB
	cat   *catalog.Catalog
	goals *goals.Service
	hist  *history.Service
	bank  *bank.Service
	now   func() time.Time
}

// New creates the ledger orchestrator.
func New(db *sqlite.DB, cat *catalog.Catalog, g *goals.Service, h *history.Service, b *bank.Service) *Service {
	return &Service{db: db, cat: cat, goals: g, hist: h, bank: b, now: time.Now}
}

func (s *Service) today() string { return domain.DateKey(s.now()) }

func (s *Service) checkEditable(dateKey string) error {
	if dateKey != s.today() {
		observability.LedgerRejections.WithLabelValues("locked").Inc()
		return domain.ErrDayLocked
	}
	return nil
}

// persist saves the day and records its score in the history.
func (s *Service) persist(dateKey string, l domain.DayLedger) error {
	if err := s.db.SaveDayLedger(dateKey, l); err != nil {
		return err
	}
	return s.hist.UpdateForDate(dateKey, domain.DayScore(l))
}

// ─── Reads ──────────────────────────────────────────────────────────────────

// Day returns one day's ledger after reconciling the week's goal progress
// against it. Any date is readable. A timer still running on a day that is no
// longer today is folded and stopped here, so stale timers cannot accrue past
// the first read after rollover.
func (s *Service) Day(dateKey string) (domain.DayLedger, error) {
	if !domain.ValidDateKey(dateKey) {
		return domain.DayLedger{}, domain.ErrBadPayload
	}
	ledger, err := s.db.LoadDayLedger(dateKey)
	if err != nil {
		return domain.DayLedger{}, err
	}
	if dateKey != s.today() {
		if folded, changed := stopRunningTimers(ledger, s.now()); changed {
			ledger = folded
			if err := s.persist(dateKey, ledger); err != nil {
				return domain.DayLedger{}, err
			}
		}
	}
	if _, err := s.goals.ValidateWeek(dateKey); err != nil {
		return domain.DayLedger{}, err
	}
	return ledger, nil
}

// DayScore returns the day's net score, timers read as of now.
func (s *Service) DayScore(dateKey string) (int, error) {
	ledger, err := s.db.LoadDayLedger(dateKey)
	if err != nil {
		return 0, err
	}
	return domain.DayScore(ledger), nil
}

// Focus returns the day's focus accumulator: total target-gain seconds
// (running timers included) scored against the catalog's focus tiers.
func (s *Service) Focus(dateKey string) (FocusSummary, error) {
	ledger, err := s.db.LoadDayLedger(dateKey)
	if err != nil {
		return FocusSummary{}, err
	}
	total := domain.AccumulatedTargetSeconds(ledger.Gains, s.now())
	return FocusSummary{
		TotalSeconds: total,
		Score:        domain.FocusScore(s.cat.FocusCriteria(), total),
	}, nil
}

// DayScores returns the net score of every non-empty stored day. Feeds the
// activity heatmap.
func (s *Service) DayScores() (map[string]int, error) {
	records, err := s.db.ListDayLedgers()
	if err != nil {
		return nil, err
	}
	scores := make(map[string]int, len(records))
	for _, rec := range records {
		if !rec.State.IsEmpty() {
			scores[rec.DateKey] = domain.DayScore(rec.State)
		}
	}
	return scores, nil
}

// ─── Drop & Remove ──────────────────────────────────────────────────────────

// Drop places a catalog item onto today's board. Re-dropping an item already
// on the board is a no-op, except custom expenses, which get a fresh id each
// time. Timer items start running immediately; any other running timer is
// folded first so only one timer runs at a time.
func (s *Service) Drop(dateKey string, payload DropPayload) (domain.DayLedger, error) {
	if err := s.checkEditable(dateKey); err != nil {
		return domain.DayLedger{}, err
	}
	if payload.ID == "" || payload.Name == "" ||
		(payload.ScoreType != domain.ScoreGain && payload.ScoreType != domain.ScoreDeduction) {
		observability.LedgerRejections.WithLabelValues("bad_payload").Inc()
		return domain.DayLedger{}, domain.ErrBadPayload
	}

	ledger, err := s.db.LoadDayLedger(dateKey)
	if err != nil {
		return domain.DayLedger{}, err
	}

	entry := domain.Entry{
		ID:           payload.ID,
		Name:         payload.Name,
		ScoreType:    payload.ScoreType,
		Criteria:     payload.Criteria,
		BaseType:     payload.BaseType,
		FixedScore:   payload.Score,
		CategoryKey:  payload.CategoryKey,
		WeeklyGoalID: payload.WeeklyGoalID,
		Count:        1,
	}

	if payload.ScoreType == domain.ScoreDeduction {
		if s.cat.IsCustomExpense(entry.Name) {
			zero := 0
			entry.ID = payload.ID + "-" + uuid.NewString()
			entry.FixedScore = nil
			entry.CustomDescription = "Expense"
			entry.CustomScore = &zero
		} else {
			if _, i := ledger.FindEntry(domain.ScoreDeduction, entry.ID); i >= 0 {
				observability.LedgerRejections.WithLabelValues("duplicate").Inc()
				return ledger, nil
			}
			if s.cat.IsTimerDeduction(entry.Name) {
				ledger = s.foldRunningTimers(ledger)
				entry = domain.StartTimer(entry, s.now())
			}
		}
		ledger.Deductions = append(ledger.Deductions, entry)
	} else {
		if _, i := ledger.FindEntry(domain.ScoreGain, entry.ID); i >= 0 {
			observability.LedgerRejections.WithLabelValues("duplicate").Inc()
			return ledger, nil
		}
		if entry.CategoryKey == domain.CategoryTargetGains {
			ledger = s.foldRunningTimers(ledger)
			entry = domain.StartTimer(entry, s.now())
		}
		ledger.Gains = append(ledger.Gains, entry)
	}

	if err := s.db.SaveDayLedger(dateKey, ledger); err != nil {
		return domain.DayLedger{}, err
	}

	// Goal recount reads the saved week, so it runs after the save. A grant
	// appends the reward to today's board.
	if payload.ScoreType == domain.ScoreGain && payload.WeeklyGoalID != "" {
		reward, err := s.goals.Recalculate(dateKey, payload.WeeklyGoalID)
		if err != nil {
			return domain.DayLedger{}, err
		}
		if reward != nil {
			ledger.Gains = append(ledger.Gains, *reward)
			if err := s.db.SaveDayLedger(dateKey, ledger); err != nil {
				return domain.DayLedger{}, err
			}
		}
	}

	if err := s.hist.UpdateForDate(dateKey, domain.DayScore(ledger)); err != nil {
		return domain.DayLedger{}, err
	}
	observability.LedgerMutations.WithLabelValues("drop").Inc()
	return ledger, nil
}

// Remove deletes one entry from today's board. Bank deductions undo their
// bank movement; goal items trigger a recount (the reward latch survives);
// deleting a reward entry clears the latch so the goal can grant again.
func (s *Service) Remove(dateKey string, list domain.ScoreType, entryID string) (domain.DayLedger, error) {
	if err := s.checkEditable(dateKey); err != nil {
		return domain.DayLedger{}, err
	}
	ledger, err := s.db.LoadDayLedger(dateKey)
	if err != nil {
		return domain.DayLedger{}, err
	}
	entry, idx := ledger.FindEntry(list, entryID)
	if idx < 0 {
		observability.LedgerRejections.WithLabelValues("not_found").Inc()
		return domain.DayLedger{}, domain.ErrEntryNotFound
	}

	if list == domain.ScoreDeduction {
		if err := s.bank.Undo(entry); err != nil {
			return domain.DayLedger{}, err
		}
		ledger.Deductions = append(ledger.Deductions[:idx], ledger.Deductions[idx+1:]...)
	} else {
		ledger.Gains = append(ledger.Gains[:idx], ledger.Gains[idx+1:]...)
	}

	if err := s.db.SaveDayLedger(dateKey, ledger); err != nil {
		return domain.DayLedger{}, err
	}

	if list == domain.ScoreGain && entry.WeeklyGoalID != "" {
		if entry.IsReward() {
			err = s.goals.ClearReward(domain.WeekKey(dateKey), entry.WeeklyGoalID)
		} else {
			err = s.goals.RecountOnly(dateKey, entry.WeeklyGoalID)
		}
		if err != nil {
			return domain.DayLedger{}, err
		}
	}

	if err := s.hist.UpdateForDate(dateKey, domain.DayScore(ledger)); err != nil {
		return domain.DayLedger{}, err
	}
	observability.LedgerMutations.WithLabelValues("remove").Inc()
	return ledger, nil
}

// Clear wipes today's board. Bank deductions are undone and reward latches
// cleared first, so clearing a day cannot strand bank or goal state.
func (s *Service) Clear(dateKey string) error {
	if err := s.checkEditable(dateKey); err != nil {
		return err
	}
	ledger, err := s.db.LoadDayLedger(dateKey)
	if err != nil {
		return err
	}
	for _, e := range ledger.Deductions {
		if err := s.bank.Undo(e); err != nil {
			return err
		}
	}
	if err := s.db.DeleteDayLedger(dateKey); err != nil {
		return err
	}

	weekKey := domain.WeekKey(dateKey)
	recounted := make(map[string]bool)
	for _, e := range ledger.Gains {
		if e.WeeklyGoalID == "" {
			continue
		}
		if e.IsReward() {
			if err := s.goals.ClearReward(weekKey, e.WeeklyGoalID); err != nil {
				return err
			}
		} else if !recounted[e.WeeklyGoalID] {
			recounted[e.WeeklyGoalID] = true
			if err := s.goals.RecountOnly(dateKey, e.WeeklyGoalID); err != nil {
				return err
			}
		}
	}

	if err := s.hist.UpdateForDate(dateKey, 0); err != nil {
		return err
	}
	observability.LedgerMutations.WithLabelValues("clear").Inc()
	return nil
}

// ─── Bank Pairing ───────────────────────────────────────────────────────────

// BankDeposit moves points into the bank and appends the paired deduction to
// today's board.
func (s *Service) BankDeposit(dateKey string, amount int64, mode domain.DepositMode) (domain.DayLedger, error) {
	if err := s.checkEditable(dateKey); err != nil {
		return domain.DayLedger{}, err
	}
	ledger, err := s.db.LoadDayLedger(dateKey)
	if err != nil {
		return domain.DayLedger{}, err
	}
	entry, err := s.bank.Deposit(amount, mode)
	if err != nil {
		return domain.DayLedger{}, err
	}
	return s.appendPaired(dateKey, ledger, entry)
}

// BankWithdraw moves points out of the demand balance and appends the paired
// gain to today's board.
func (s *Service) BankWithdraw(dateKey string, amount int64) (domain.DayLedger, error) {
	if err := s.checkEditable(dateKey); err != nil {
		return domain.DayLedger{}, err
	}
	ledger, err := s.db.LoadDayLedger(dateKey)
	if err != nil {
		return domain.DayLedger{}, err
	}
	entry, err := s.bank.Withdraw(amount)
	if err != nil {
		return domain.DayLedger{}, err
	}
	return s.appendPaired(dateKey, ledger, entry)
}

// appendPaired adds a bank entry to the already-loaded board. A failed save
// reverts the bank movement so the two stores cannot drift apart.
func (s *Service) appendPaired(dateKey string, ledger domain.DayLedger, entry domain.Entry) (domain.DayLedger, error) {
	if entry.ScoreType == domain.ScoreDeduction {
		ledger.Deductions = append(ledger.Deductions, entry)
	} else {
		ledger.Gains = append(ledger.Gains, entry)
	}
	if err := s.persist(dateKey, ledger); err != nil {
		if rerr := s.bank.Revert(entry); rerr != nil {
			return domain.DayLedger{}, fmt.Errorf("%w (revert failed: %v)", err, rerr)
		}
		return domain.DayLedger{}, err
	}
	observability.LedgerMutations.WithLabelValues("bank").Inc()
	return ledger, nil
}

// ─── Entry Edits ────────────────────────────────────────────────────────────

// mutateEntry applies fn to one entry on today's board and persists.
func (s *Service) mutateEntry(dateKey string, list domain.ScoreType, entryID, op string,
	fn func(domain.Entry) (domain.Entry, error)) (domain.DayLedger, error) {

	if err := s.checkEditable(dateKey); err != nil {
		return domain.DayLedger{}, err
	}
	ledger, err := s.db.LoadDayLedger(dateKey)
	if err != nil {
		return domain.DayLedger{}, err
	}
	entry, idx := ledger.FindEntry(list, entryID)
	if idx < 0 {
		observability.LedgerRejections.WithLabelValues("not_found").Inc()
		return domain.DayLedger{}, domain.ErrEntryNotFound
	}
	entry, err = fn(entry)
	if err != nil {
		return domain.DayLedger{}, err
	}
	if list == domain.ScoreDeduction {
		ledger.Deductions[idx] = entry
	} else {
		ledger.Gains[idx] = entry
	}
	if err := s.persist(dateKey, ledger); err != nil {
		return domain.DayLedger{}, err
	}
	observability.LedgerMutations.WithLabelValues(op).Inc()
	return ledger, nil
}

// SetCount sets the repeat count of a count-based deduction.
func (s *Service) SetCount(dateKey, entryID string, count int) (domain.DayLedger, error) {
	return s.mutateEntry(dateKey, domain.ScoreDeduction, entryID, "set_count",
		func(e domain.Entry) (domain.Entry, error) {
			if count < 1 || !s.cat.IsCountBased(e.Name) {
				observability.LedgerRejections.WithLabelValues("bad_payload").Inc()
				return e, domain.ErrBadPayload
			}
			e.Count = count
			return e, nil
		})
}

// SetCriteriaIndex selects a tier on a tiered entry.
func (s *Service) SetCriteriaIndex(dateKey string, list domain.ScoreType, entryID string, idx int) (domain.DayLedger, error) {
	return s.mutateEntry(dateKey, list, entryID, "set_index",
		func(e domain.Entry) (domain.Entry, error) {
			if idx < 0 || idx >= len(e.Criteria) {
				observability.LedgerRejections.WithLabelValues("bad_payload").Inc()
				return e, domain.ErrBadPayload
			}
			e.SelectedIndex = idx
			return e, nil
		})
}

// ToggleBonus flips the +10 bonus on a gain entry.
func (s *Service) ToggleBonus(dateKey, entryID string) (domain.DayLedger, error) {
	return s.mutateEntry(dateKey, domain.ScoreGain, entryID, "toggle_bonus",
		func(e domain.Entry) (domain.Entry, error) {
			e.BonusActive = !e.BonusActive
			return e, nil
		})
}

// EditCustom sets the description and cost of a custom expense entry.
func (s *Service) EditCustom(dateKey, entryID, description string, score int) (domain.DayLedger, error) {
	return s.mutateEntry(dateKey, domain.ScoreDeduction, entryID, "edit_custom",
		func(e domain.Entry) (domain.Entry, error) {
			if e.CustomScore == nil || score < 0 {
				observability.LedgerRejections.WithLabelValues("bad_payload").Inc()
				return e, domain.ErrBadPayload
			}
			if description == "" {
				description = "Expense"
			}
			e.CustomDescription = description
			e.CustomScore = &score
			return e, nil
		})
}

// ─── Timers ─────────────────────────────────────────────────────────────────

// isTimerEntry reports whether the entry participates in timer control:
// target gains and catalog timer deductions.
func (s *Service) isTimerEntry(e domain.Entry) bool {
	if e.ScoreType == domain.ScoreGain {
		return e.CategoryKey == domain.CategoryTargetGains
	}
	return s.cat.IsTimerDeduction(e.Name)
}

func (s *Service) foldRunningTimers(l domain.DayLedger) domain.DayLedger {
	now := s.now()
	for i, e := range l.Gains {
		if s.isTimerEntry(e) {
			l.Gains[i] = domain.FoldTimer(e, now)
		}
	}
	for i, e := range l.Deductions {
		if s.isTimerEntry(e) {
			l.Deductions[i] = domain.FoldTimer(e, now)
		}
	}
	return l
}

// PauseTimer folds and stops one running timer.
func (s *Service) PauseTimer(dateKey string, list domain.ScoreType, entryID string) (domain.DayLedger, error) {
	return s.mutateEntry(dateKey, list, entryID, "timer",
		func(e domain.Entry) (domain.Entry, error) {
			if !s.isTimerEntry(e) {
				observability.LedgerRejections.WithLabelValues("bad_payload").Inc()
				return e, domain.ErrBadPayload
			}
			return domain.FoldTimer(e, s.now()), nil
		})
}

// ResumeTimer starts one timer and folds every other running timer on the
// board, gains and deductions alike. Only one timer runs at a time.
func (s *Service) ResumeTimer(dateKey string, list domain.ScoreType, entryID string) (domain.DayLedger, error) {
	if err := s.checkEditable(dateKey); err != nil {
		return domain.DayLedger{}, err
	}
	ledger, err := s.db.LoadDayLedger(dateKey)
	if err != nil {
		return domain.DayLedger{}, err
	}
	entry, idx := ledger.FindEntry(list, entryID)
	if idx < 0 {
		observability.LedgerRejections.WithLabelValues("not_found").Inc()
		return domain.DayLedger{}, domain.ErrEntryNotFound
	}
	if !s.isTimerEntry(entry) {
		observability.LedgerRejections.WithLabelValues("bad_payload").Inc()
		return domain.DayLedger{}, domain.ErrBadPayload
	}

	ledger = s.foldRunningTimers(ledger)
	// Re-read the entry: folding may have updated it.
	entry, _ = ledger.FindEntry(list, entryID)
	entry = domain.StartTimer(entry, s.now())
	if list == domain.ScoreDeduction {
		ledger.Deductions[idx] = entry
	} else {
		ledger.Gains[idx] = entry
	}

	if err := s.persist(dateKey, ledger); err != nil {
		return domain.DayLedger{}, err
	}
	observability.LedgerMutations.WithLabelValues("timer").Inc()
	return ledger, nil
}

// Tick materializes accrued seconds for every running timer on the day. On
// today the timers are rebased and keep running; on any other day they are
// folded and stopped, since a day that left editability can never be paused
// through the normal mutation path. Safe to call on any schedule; accrual is
// wall-clock based, so a missed tick loses nothing.
func (s *Service) Tick(dateKey string) (domain.DayLedger, error) {
	ledger, err := s.db.LoadDayLedger(dateKey)
	if err != nil {
		return domain.DayLedger{}, err
	}
	now := s.now()
	changed := false
	if dateKey != s.today() {
		ledger, changed = stopRunningTimers(ledger, now)
	} else {
		for i, e := range ledger.Gains {
			if e.TimerRunning {
				ledger.Gains[i] = domain.RebaseTimer(e, now)
				changed = true
			}
		}
		for i, e := range ledger.Deductions {
			if e.TimerRunning {
				ledger.Deductions[i] = domain.RebaseTimer(e, now)
				changed = true
			}
		}
	}
	if !changed {
		return ledger, nil
	}
	if err := s.persist(dateKey, ledger); err != nil {
		return domain.DayLedger{}, err
	}
	return ledger, nil
}

// stopRunningTimers folds every running timer on the board, capping its
// accrual at now.
func stopRunningTimers(l domain.DayLedger, now time.Time) (domain.DayLedger, bool) {
	changed := false
	for i, e := range l.Gains {
		if e.TimerRunning {
			l.Gains[i] = domain.FoldTimer(e, now)
			changed = true
		}
	}
	for i, e := range l.Deductions {
		if e.TimerRunning {
			l.Deductions[i] = domain.FoldTimer(e, now)
			changed = true
		}
	}
	return l, changed
}
