// Package history maintains the sparse cumulative total-score history. Only
// dates whose total changed are stored; a read carries the nearest prior
// point forward. The anchor point at 1970-01-01 holds the initial total and
// is always present after a rebuild, so every lookup has a floor.
package history

import (
	"fmt"

	"github.com/siphor/siphor/internal/domain"
	"github.com/siphor/siphor/internal/infra/observability"
	"github.com/siphor/siphor/internal/infra/sqlite"
)

// DefaultInitialTotal seeds the anchor when no explicit starting total is
// configured.
const DefaultInitialTotal = 788

// Service reads and rebuilds the total-score history.
type Service struct {
	db      *sqlite.DB
	initial int
}

// New creates a history service. initial is the cumulative total before any
// recorded day; pass DefaultInitialTotal when unconfigured.
func New(db *sqlite.DB, initial int) *Service {
	return &Service{db: db, initial: initial}
}

// TotalUpToDate returns the cumulative total through the end of dateKey, the
// day's own score included. The total carried INTO a day is TotalUpToDate of
// the previous day, which is how UpdateForDate composes the next point. A
// history with fewer than two points (anchor only, or empty) is considered
// unseeded and is rebuilt from the ledgers first.
func (s *Service) TotalUpToDate(dateKey string) (int, error) {
	count, err := s.db.HistoryPointCount()
	if err != nil {
		return 0, err
	}
	if count < 2 {
		if err := s.rebuild("auto"); err != nil {
			return 0, err
		}
	}

	total, ok, err := s.db.LatestTotalAtOrBefore(dateKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		// Nothing at or before dateKey even after a rebuild: the date
		// precedes the anchor. The initial total still applies.
		return s.initial, nil
	}
	return total, nil
}

// UpdateForDate records dateKey's cumulative total as the total through the
// previous day plus dayScore. Later points are left untouched; a day edited
// far in the past makes them stale until the next rebuild.
func (s *Service) UpdateForDate(dateKey string, dayScore int) error {
	prev, err := s.TotalUpToDate(domain.PrevDateKey(dateKey))
	if err != nil {
		return err
	}
	if err := s.db.UpsertHistoryPoint(dateKey, prev+dayScore); err != nil {
		return err
	}
	s.publishPointCount()
	return nil
}

// Rebuild discards every point and replays all day ledgers in date order.
func (s *Service) Rebuild() error {
	return s.rebuild("manual")
}

// RebuildWithInitial changes the anchor total, then rebuilds. Subsequent
// automatic rebuilds keep the new initial.
func (s *Service) RebuildWithInitial(initial int) error {
	s.initial = initial
	return s.rebuild("manual")
}

func (s *Service) rebuild(trigger string) error {
	if err := s.db.ClearHistory(); err != nil {
		return err
	}
	if err := s.db.UpsertHistoryPoint(domain.AnchorDate, s.initial); err != nil {
		return err
	}

	records, err := s.db.ListDayLedgers()
	if err != nil {
		return fmt.Errorf("rebuild history: %w", err)
	}
	total := s.initial
	for _, rec := range records {
		score := domain.DayScore(rec.State)
		if score == 0 {
			continue
		}
		total += score
		if err := s.db.UpsertHistoryPoint(rec.DateKey, total); err != nil {
			return err
		}
	}

	observability.HistoryRebuilds.WithLabelValues(trigger).Inc()
	s.publishPointCount()
	return nil
}

// Points returns the full sparse history, anchor included.
func (s *Service) Points() (map[string]int, error) {
	return s.db.HistoryPoints()
}

func (s *Service) publishPointCount() {
	if count, err := s.db.HistoryPointCount(); err == nil {
		observability.HistoryPointsStored.Set(float64(count))
	}
}
