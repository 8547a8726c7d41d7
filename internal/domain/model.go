// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import "time"

// ─── Entry Types ────────────────────────────────────────────────────────────

// ScoreType tells which side of the day ledger an entry belongs to.
type ScoreType string

const (
	ScoreGain      ScoreType = "gain"
	ScoreDeduction ScoreType = "deduction"
)

// Well-known category keys. The catalog drives behavior; these mark the
// entries that get special handling (bonus toggle, bank pairing, rewards).
const (
	CategoryTargetGains  = "targetGains"
	CategoryBank         = "bank"
	CategoryWeeklyGoal   = "weeklyGoal"
	CategoryWeeklyBounty = "weeklyBounty"
)

// Criterion is one tier of a tiered or duration-based scoring rule.
// For duration rules, Time is seconds and Score/Time is the accrual rate.
type Criterion struct {
	Time       int64  `json:"time"`
	Score      int    `json:"score"`
	Comparison string `json:"comparison,omitempty"`
}

// Entry is a single dropped item on one day's board. JSON field names match
// the persisted record format so exports stay readable by older backups.
//
// At most one of FixedScore, duration Criteria, or CustomScore determines the
// scoring branch — Score evaluates them in that priority order so an entry is
// never double-counted.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ScoreType ScoreType `json:"scoreType"`

	SelectedIndex int         `json:"selectedIndex,omitempty"`
	Criteria      []Criterion `json:"criteria,omitempty"`
	BaseType      string      `json:"baseType,omitempty"`
	FixedScore    *int        `json:"fixedScore,omitempty"`
	CategoryKey   string      `json:"categoryKey,omitempty"`
	BonusActive   bool        `json:"bonusActive,omitempty"`

	// Count-based deductions (count defaults to 1 when zero).
	Count int `json:"count,omitempty"`

	// Duration timers. TimerStartMs is the epoch millisecond of the last
	// resume; zero means the timer is not running.
	TimerSeconds int64 `json:"timerSeconds,omitempty"`
	TimerRunning bool  `json:"timerRunning,omitempty"`
	TimerStartMs int64 `json:"timerStartTs,omitempty"`
	TimerPaused  bool  `json:"timerPaused,omitempty"`

	// Free-form expense fields.
	CustomDescription string `json:"customDescription,omitempty"`
	CustomScore       *int   `json:"customScore,omitempty"`

	// Weekly goal linkage. WeeklyRewardID marks synthesized reward entries,
	// which are excluded from goal recounts.
	WeeklyGoalID   string `json:"weeklyGoalId,omitempty"`
	WeeklyRewardID string `json:"weeklyRewardId,omitempty"`
}

// IsReward reports whether the entry is a synthesized weekly-goal reward.
func (e Entry) IsReward() bool { return e.WeeklyRewardID != "" }

// DayLedger is one day's record: two ordered lists of entries.
// The zero value (both lists nil) is a valid empty day.
type DayLedger struct {
	Deductions []Entry `json:"deductions"`
	Gains      []Entry `json:"gains"`
}

// IsEmpty reports whether the day has no entries at all.
func (l DayLedger) IsEmpty() bool {
	return len(l.Deductions) == 0 && len(l.Gains) == 0
}

// FindEntry returns the entry with the given id from the given list and its
// index, or -1 when absent.
func (l DayLedger) FindEntry(list ScoreType, id string) (Entry, int) {
	for i, e := range l.entries(list) {
		if e.ID == id {
			return e, i
		}
	}
	return Entry{}, -1
}

func (l DayLedger) entries(list ScoreType) []Entry {
	if list == ScoreDeduction {
		return l.Deductions
	}
	return l.Gains
}

// ─── Catalog Types ──────────────────────────────────────────────────────────
// The scoring catalog is an external read-only lookup table. The catalog, not
// the entry, is authoritative for whether an item is count-based, timer-based,
// or a custom expense.

// ItemType classifies a catalog item's scoring behavior.
type ItemType string

const (
	ItemFixed  ItemType = "fixed"
	ItemTiered ItemType = "tiered"
	ItemCustom ItemType = "custom"
)

// ScoringItem is one catalog definition.
type ScoringItem struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     ItemType     `json:"type"`
	BaseType string       `json:"baseType,omitempty"`
	Score    *int         `json:"score,omitempty"`
	Criteria []Criterion  `json:"criteria,omitempty"`
	Goals    []WeeklyGoal `json:"goals,omitempty"`
}

// ScoringCategory groups catalog items sharing a score type.
type ScoringCategory struct {
	ScoreType ScoreType     `json:"scoreType"`
	Items     []ScoringItem `json:"items"`
}

// WeeklyGoal is a recurring per-week target tied to a catalog item.
type WeeklyGoal struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Type         string `json:"type,omitempty"`
	TargetCount  int    `json:"targetCount"`
	RewardPoints int    `json:"rewardPoints"`
	SegmentCount int    `json:"segmentCount,omitempty"`
}

// ─── Weekly Goal Progress ───────────────────────────────────────────────────

// GoalProgress is the cached completion state of one goal for one week.
// Count is derived from the ledger and never authoritative; Rewarded is a
// one-way latch cleared only when the reward entry is deleted.
type GoalProgress struct {
	Count    int  `json:"count"`
	Rewarded bool `json:"rewarded"`
}

// WeekState maps goal id → progress for one week key.
type WeekState struct {
	Goals map[string]GoalProgress `json:"goals"`
}

// ─── Weekly Bounties ────────────────────────────────────────────────────────

// Bounty is a free-form once-per-week checklist item. CompletedDate is the
// date key it was claimed on, empty while incomplete.
type Bounty struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Points        int    `json:"points"`
	CompletedDate string `json:"completedDate,omitempty"`
}

// ─── Bank Types ─────────────────────────────────────────────────────────────

// FixedDeposit is a term deposit with a maturity date and simple monthly
// interest. Amounts are integer points — no currency-grade precision.
type FixedDeposit struct {
	ID           string  `json:"id"`
	Amount       int64   `json:"amount"`
	StartDate    string  `json:"startDate"`
	MaturityDate string  `json:"maturityDate"`
	Rate         float64 `json:"rate"`
}

// MaturedValue returns the payout at maturity (simple interest, rounded).
func (d FixedDeposit) MaturedValue() int64 {
	return int64(float64(d.Amount)*(1+d.Rate) + 0.5)
}

// DaysLeft returns whole days until maturity relative to today, negative once
// matured.
func (d FixedDeposit) DaysLeft(today string) int {
	t1, err1 := time.Parse(DateLayout, today)
	t2, err2 := time.Parse(DateLayout, d.MaturityDate)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(t2.Sub(t1).Hours() / 24)
}

// BankState is the process-wide bank sub-ledger: one record total.
type BankState struct {
	Demand int64          `json:"demand"`
	Fixed  []FixedDeposit `json:"fixed"`
}

// TermTotal sums the principal of all fixed deposits.
func (b BankState) TermTotal() int64 {
	var total int64
	for _, d := range b.Fixed {
		total += d.Amount
	}
	return total
}

// DepositMode selects demand vs fixed-term on deposit.
type DepositMode string

const (
	DepositDemand DepositMode = "demand"
	DepositTerm   DepositMode = "term"
)
