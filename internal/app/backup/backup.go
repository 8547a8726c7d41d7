// Package backup implements whole-dataset export and import. The document
// format is versioned JSON carrying every day ledger plus weekly goal and
// bounty state. Import is all-or-nothing up front: the whole document is
// validated before the first write, and a bad document changes nothing.
//
// The bank sub-ledger and the score history are deliberately outside the
// document. Bank state pairs with ledger entries that may predate the backup,
// and history is always recomputable; callers rebuild it after an import.
package backup

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/siphor/siphor/internal/domain"
	"github.com/siphor/siphor/internal/infra/observability"
	"github.com/siphor/siphor/internal/infra/sqlite"
)

// Version is the document format version this build writes and accepts.
const Version = "1.0"

// WeekGoalsRecord pairs a week key with its goal progress state.
type WeekGoalsRecord struct {
	WeekKey string           `json:"weekKey"`
	State   domain.WeekState `json:"state"`
}

// WeekBountiesRecord pairs a week key with its bounty list.
type WeekBountiesRecord struct {
	WeekKey string          `json:"weekKey"`
	Items   []domain.Bounty `json:"items"`
}

// Document is the on-disk backup format. The weekly sections are lists of
// week-keyed records, mirroring Data's shape; both are optional so documents
// from builds predating them still import.
type Document struct {
	Version        string               `json:"version"`
	ExportDate     string               `json:"exportDate"`
	Data           []sqlite.DayRecord   `json:"data"`
	WeeklyGoals    []WeekGoalsRecord    `json:"weeklyGoals,omitempty"`
	WeeklyBounties []WeekBountiesRecord `json:"weeklyBounties,omitempty"`
}

// Service exports and imports the full dataset.
type Service struct {
	db  *sqlite.DB
	now func() time.Time
}

// New creates a backup service.
func New(db *sqlite.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Export collects every stored day, week, and bounty into one document.
// Empty days are skipped.
func (s *Service) Export() (Document, error) {
	records, err := s.db.ListDayLedgers()
	if err != nil {
		observability.BackupRuns.WithLabelValues("export", "error").Inc()
		return Document{}, err
	}
	days := make([]sqlite.DayRecord, 0, len(records))
	for _, rec := range records {
		if !rec.State.IsEmpty() {
			days = append(days, rec)
		}
	}

	weeks, err := s.db.ListWeekStates()
	if err != nil {
		observability.BackupRuns.WithLabelValues("export", "error").Inc()
		return Document{}, err
	}
	bounties, err := s.db.ListBountyWeeks()
	if err != nil {
		observability.BackupRuns.WithLabelValues("export", "error").Inc()
		return Document{}, err
	}

	goalRecords := make([]WeekGoalsRecord, 0, len(weeks))
	for weekKey, state := range weeks {
		goalRecords = append(goalRecords, WeekGoalsRecord{WeekKey: weekKey, State: state})
	}
	sort.Slice(goalRecords, func(i, j int) bool { return goalRecords[i].WeekKey < goalRecords[j].WeekKey })

	bountyRecords := make([]WeekBountiesRecord, 0, len(bounties))
	for weekKey, items := range bounties {
		bountyRecords = append(bountyRecords, WeekBountiesRecord{WeekKey: weekKey, Items: items})
	}
	sort.Slice(bountyRecords, func(i, j int) bool { return bountyRecords[i].WeekKey < bountyRecords[j].WeekKey })

	observability.BackupRuns.WithLabelValues("export", "ok").Inc()
	return Document{
		Version:        Version,
		ExportDate:     s.now().UTC().Format(time.RFC3339),
		Data:           days,
		WeeklyGoals:    goalRecords,
		WeeklyBounties: bountyRecords,
	}, nil
}

// Import replaces the stored state for every day and week the document
// names. Days absent from the document are left alone. Returns the number of
// days written.
func (s *Service) Import(doc Document) (int, error) {
	if err := validate(doc); err != nil {
		observability.BackupRuns.WithLabelValues("import", "rejected").Inc()
		return 0, err
	}

	for _, rec := range doc.Data {
		if err := s.db.SaveDayLedger(rec.DateKey, rec.State); err != nil {
			observability.BackupRuns.WithLabelValues("import", "error").Inc()
			return 0, err
		}
	}
	for _, rec := range doc.WeeklyGoals {
		if err := s.db.SaveWeekState(rec.WeekKey, rec.State); err != nil {
			observability.BackupRuns.WithLabelValues("import", "error").Inc()
			return 0, err
		}
	}
	for _, rec := range doc.WeeklyBounties {
		for _, b := range rec.Items {
			if err := s.db.UpsertBounty(rec.WeekKey, b); err != nil {
				observability.BackupRuns.WithLabelValues("import", "error").Inc()
				return 0, err
			}
		}
	}

	observability.BackupRuns.WithLabelValues("import", "ok").Inc()
	return len(doc.Data), nil
}

func validate(doc Document) error {
	if doc.Version == "" || doc.ExportDate == "" || doc.Data == nil {
		return fmt.Errorf("%w: missing version, exportDate, or data", domain.ErrInvalidImport)
	}
	if doc.Version != Version {
		return fmt.Errorf("%w: unsupported version %q", domain.ErrInvalidImport, doc.Version)
	}
	for _, rec := range doc.Data {
		if !domain.ValidDateKey(rec.DateKey) {
			return fmt.Errorf("%w: bad date key %q", domain.ErrInvalidImport, rec.DateKey)
		}
		if err := validateEntries(rec.DateKey, rec.State.Deductions, domain.ScoreDeduction); err != nil {
			return err
		}
		if err := validateEntries(rec.DateKey, rec.State.Gains, domain.ScoreGain); err != nil {
			return err
		}
	}
	for _, rec := range doc.WeeklyGoals {
		if err := validateWeekKey(rec.WeekKey); err != nil {
			return err
		}
	}
	for _, rec := range doc.WeeklyBounties {
		if err := validateWeekKey(rec.WeekKey); err != nil {
			return err
		}
		for _, b := range rec.Items {
			if b.ID == "" {
				return fmt.Errorf("%w: bounty without id in %s", domain.ErrInvalidImport, rec.WeekKey)
			}
		}
	}
	return nil
}

func validateEntries(dateKey string, entries []domain.Entry, want domain.ScoreType) error {
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: %s has an entry without id", domain.ErrInvalidImport, dateKey)
		}
		if e.ScoreType != want {
			return fmt.Errorf("%w: %s entry %s on the wrong list", domain.ErrInvalidImport, dateKey, e.ID)
		}
	}
	return nil
}

func validateWeekKey(weekKey string) error {
	day, ok := strings.CutPrefix(weekKey, domain.WeekKeyPrefix)
	if !ok || !domain.ValidDateKey(day) {
		return fmt.Errorf("%w: bad week key %q", domain.ErrInvalidImport, weekKey)
	}
	return nil
}
