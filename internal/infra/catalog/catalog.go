// Package catalog loads the read-only scoring catalog: the item definitions
// that drive how dropped entries are scored, plus the weekly goal table.
// A default catalog ships embedded in the binary; a file on disk overrides it.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/siphor/siphor/internal/domain"
)

//go:embed scoring.json
var defaultScoring []byte

// Catalog holds the full scoring table. It is immutable after load.
type Catalog struct {
	RegularGains domain.ScoringCategory `json:"regularGains"`
	TargetGains  domain.ScoringCategory `json:"targetGains"`
	Deductions   domain.ScoringCategory `json:"deductions"`
	WeeklyGoals  []domain.WeeklyGoal    `json:"weeklyGoals"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := parse(defaultScoring)
	if err != nil {
		// The embedded file is validated by tests; a parse failure here is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded scoring catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from path, falling back to the embedded default when
// the file does not exist.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

func parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ─── Item Lookup ────────────────────────────────────────────────────────────

// Deduction returns the deduction item with the given name, or nil.
func (c *Catalog) Deduction(name string) *domain.ScoringItem {
	return findItem(c.Deductions.Items, name)
}

// Gain returns the regular or target gain item with the given name, or nil.
func (c *Catalog) Gain(name string) *domain.ScoringItem {
	if item := findItem(c.RegularGains.Items, name); item != nil {
		return item
	}
	return findItem(c.TargetGains.Items, name)
}

func findItem(items []domain.ScoringItem, name string) *domain.ScoringItem {
	for i := range items {
		if items[i].Name == name {
			return &items[i]
		}
	}
	return nil
}

// IsCountBased reports whether the named deduction repeats by count. Every
// fixed deduction is count-based.
func (c *Catalog) IsCountBased(name string) bool {
	item := c.Deduction(name)
	return item != nil && item.Type == domain.ItemFixed
}

// IsTimerDeduction reports whether the named deduction accrues by tracked
// duration.
func (c *Catalog) IsTimerDeduction(name string) bool {
	item := c.Deduction(name)
	return item != nil && item.Type == domain.ItemTiered && item.BaseType == "duration"
}

// IsCustomExpense reports whether the named deduction takes a free-form
// description and score.
func (c *Catalog) IsCustomExpense(name string) bool {
	item := c.Deduction(name)
	return item != nil && item.Type == domain.ItemCustom
}

// ─── Weekly Goals ───────────────────────────────────────────────────────────

// Goals returns the weekly goal table.
func (c *Catalog) Goals() []domain.WeeklyGoal {
	return c.WeeklyGoals
}

// GoalByID returns the weekly goal with the given id, or nil.
func (c *Catalog) GoalByID(id string) *domain.WeeklyGoal {
	for i := range c.WeeklyGoals {
		if c.WeeklyGoals[i].ID == id {
			return &c.WeeklyGoals[i]
		}
	}
	return nil
}

// ─── Focus ──────────────────────────────────────────────────────────────────

// FocusCriteria returns the tier table of the "focus" gain item. The focus
// accumulator scores against these tiers directly.
func (c *Catalog) FocusCriteria() []domain.Criterion {
	item := findItem(c.RegularGains.Items, "focus")
	if item == nil {
		return nil
	}
	return item.Criteria
}
