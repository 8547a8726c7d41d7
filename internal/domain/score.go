package domain

import (
	"math"
	"time"
)

// ─── Scoring Engine ─────────────────────────────────────────────────────────
// Pure functions: same entry in, same score out. The entry's own stored
// fields win over any later catalog change — branch checks read the entry,
// never re-derive from a definition.

// Score returns the signed point value of an entry. Deduction scores are
// already negative, so a day's net score is a plain sum over both lists.
func Score(e Entry) int {
	if e.ScoreType == ScoreDeduction {
		// Standard (possibly count-based) deduction.
		if e.FixedScore != nil {
			count := e.Count
			if count == 0 {
				count = 1
			}
			return -abs(*e.FixedScore * count)
		}
		// Timer-based deduction: rate from the single criteria tier,
		// partial seconds always round against the user.
		if len(e.Criteria) > 0 && e.BaseType == "duration" {
			c := e.Criteria[0]
			if c.Time > 0 {
				rate := float64(c.Score) / float64(c.Time)
				return -int(math.Ceil(rate * float64(e.TimerSeconds)))
			}
			return 0
		}
		// Free-form expense.
		if e.CustomScore != nil {
			return -abs(*e.CustomScore)
		}
		return 0
	}

	// Tiered gain: clamp the selection into range.
	if len(e.Criteria) > 0 {
		idx := e.SelectedIndex
		if idx < 0 {
			idx = 0
		}
		if idx >= len(e.Criteria) {
			idx = len(e.Criteria) - 1
		}
		return e.Criteria[idx].Score + bonus(e)
	}

	// Fixed gain.
	base := 0
	if e.FixedScore != nil {
		base = *e.FixedScore
	}
	return base + bonus(e)
}

// DayScore returns the net score for one day: sum of all entry scores.
func DayScore(l DayLedger) int {
	total := 0
	for _, e := range l.Gains {
		total += Score(e)
	}
	for _, e := range l.Deductions {
		total += Score(e)
	}
	return total
}

// FocusScore maps accumulated target-gain seconds onto a tiered criteria
// list: the highest tier whose threshold is met wins, else 0.
func FocusScore(criteria []Criterion, totalSeconds int64) int {
	for i := len(criteria) - 1; i >= 0; i-- {
		if totalSeconds >= criteria[i].Time {
			return criteria[i].Score
		}
	}
	return 0
}

// ─── Timer Accrual ──────────────────────────────────────────────────────────
// Timers accrue by wall-clock delta, not per-tick increments, so suspended
// processes never lose or double-count seconds. TimerStartMs records the
// epoch millisecond of the last resume; reads rebase it to avoid double
// counting.

// TimerElapsed returns the entry's total accrued seconds as of now,
// including the live delta of a running timer.
func TimerElapsed(e Entry, now time.Time) int64 {
	total := e.TimerSeconds
	if e.TimerRunning && e.TimerStartMs > 0 {
		delta := (now.UnixMilli() - e.TimerStartMs) / 1000
		if delta > 0 {
			total += delta
		}
	}
	return total
}

// FoldTimer folds a running timer's live delta into TimerSeconds and stops
// it, marking it paused. Folding a stopped timer is a no-op.
func FoldTimer(e Entry, now time.Time) Entry {
	if !e.TimerRunning {
		return e
	}
	e.TimerSeconds = TimerElapsed(e, now)
	e.TimerRunning = false
	e.TimerStartMs = 0
	e.TimerPaused = true
	return e
}

// RebaseTimer folds the live delta into TimerSeconds and restarts the
// reference point at now, so repeated reads don't double count. Only
// meaningful for a running timer.
func RebaseTimer(e Entry, now time.Time) Entry {
	if !e.TimerRunning || e.TimerStartMs == 0 {
		return e
	}
	e.TimerSeconds = TimerElapsed(e, now)
	e.TimerStartMs = now.UnixMilli()
	return e
}

// StartTimer starts (or resumes) the entry's timer at now.
func StartTimer(e Entry, now time.Time) Entry {
	if e.TimerRunning {
		return e
	}
	e.TimerRunning = true
	e.TimerStartMs = now.UnixMilli()
	e.TimerPaused = false
	return e
}

// AccumulatedTargetSeconds sums timer seconds across all target-gain entries.
func AccumulatedTargetSeconds(gains []Entry, now time.Time) int64 {
	var total int64
	for _, g := range gains {
		if g.CategoryKey == CategoryTargetGains {
			total += TimerElapsed(g, now)
		}
	}
	return total
}

func bonus(e Entry) int {
	if e.BonusActive {
		return 10
	}
	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
