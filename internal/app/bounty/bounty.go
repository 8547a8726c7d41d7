// Package bounty manages weekly bounties: free-form once-per-week checklist
// items. Claiming a bounty appends a gain entry to the claim day's ledger;
// unclaiming removes it again. Bounties are only editable while their week is
// the current week.
package bounty

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/siphor/siphor/internal/app/history"
	"github.com/siphor/siphor/internal/domain"
	"github.com/siphor/siphor/internal/infra/sqlite"
)

// Service owns bounty state and the paired ledger entries.
type Service struct {
	db   *sqlite.DB
	hist *history.Service
	now  func() time.Time
}

// New creates a bounty service.
func New(db *sqlite.DB, hist *history.Service) *Service {
	return &Service{db: db, hist: hist, now: time.Now}
}

// EntryID returns the ledger entry id for a claimed bounty. One claim per
// bounty per week, so the id is deterministic.
func EntryID(bountyID, weekKey string) string {
	return "bounty-" + bountyID + "-" + weekKey
}

// List returns the bounties of a week. Any week is readable.
func (s *Service) List(weekKey string) ([]domain.Bounty, error) {
	return s.db.ListBounties(weekKey)
}

// Add creates a bounty in the current week.
func (s *Service) Add(weekKey, title string, points int) (domain.Bounty, error) {
	if err := s.checkCurrentWeek(weekKey); err != nil {
		return domain.Bounty{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" || points <= 0 {
		return domain.Bounty{}, domain.ErrBadPayload
	}
	b := domain.Bounty{ID: uuid.NewString(), Title: title, Points: points}
	if err := s.db.UpsertBounty(weekKey, b); err != nil {
		return domain.Bounty{}, err
	}
	return b, nil
}

// Toggle claims an incomplete bounty on dateKey, or unclaims a completed one.
// Claiming appends the paired gain entry to dateKey's ledger; unclaiming
// removes the entry from the day it was claimed on. dateKey must fall inside
// weekKey, and weekKey must be the current week.
func (s *Service) Toggle(weekKey, id, dateKey string) (domain.Bounty, error) {
	if err := s.checkCurrentWeek(weekKey); err != nil {
		return domain.Bounty{}, err
	}
	if domain.WeekKey(dateKey) != weekKey {
		return domain.Bounty{}, domain.ErrBadPayload
	}
	b, ok, err := s.db.GetBounty(weekKey, id)
	if err != nil {
		return domain.Bounty{}, err
	}
	if !ok {
		return domain.Bounty{}, domain.ErrBountyNotFound
	}

	if b.CompletedDate == "" {
		if err := s.claim(&b, weekKey, dateKey); err != nil {
			return domain.Bounty{}, err
		}
	} else {
		if err := s.unclaim(&b, weekKey); err != nil {
			return domain.Bounty{}, err
		}
	}

	if err := s.db.UpsertBounty(weekKey, b); err != nil {
		return domain.Bounty{}, err
	}
	return b, nil
}

func (s *Service) claim(b *domain.Bounty, weekKey, dateKey string) error {
	ledger, err := s.db.LoadDayLedger(dateKey)
	if err != nil {
		return err
	}
	points := b.Points
	ledger.Gains = append(ledger.Gains, domain.Entry{
		ID:          EntryID(b.ID, weekKey),
		Name:        b.Title,
		ScoreType:   domain.ScoreGain,
		FixedScore:  &points,
		CategoryKey: domain.CategoryWeeklyBounty,
	})
	if err := s.db.SaveDayLedger(dateKey, ledger); err != nil {
		return err
	}
	b.CompletedDate = dateKey
	return s.hist.UpdateForDate(dateKey, domain.DayScore(ledger))
}

func (s *Service) unclaim(b *domain.Bounty, weekKey string) error {
	claimDay := b.CompletedDate
	ledger, err := s.db.LoadDayLedger(claimDay)
	if err != nil {
		return err
	}
	entryID := EntryID(b.ID, weekKey)
	kept := ledger.Gains[:0]
	for _, e := range ledger.Gains {
		if e.ID != entryID {
			kept = append(kept, e)
		}
	}
	ledger.Gains = kept
	if err := s.db.SaveDayLedger(claimDay, ledger); err != nil {
		return err
	}
	b.CompletedDate = ""
	return s.hist.UpdateForDate(claimDay, domain.DayScore(ledger))
}

func (s *Service) checkCurrentWeek(weekKey string) error {
	if weekKey != domain.WeekKey(domain.DateKey(s.now())) {
		return domain.ErrWeekLocked
	}
	return nil
}
