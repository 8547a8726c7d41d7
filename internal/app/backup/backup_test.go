package backup

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/siphor/siphor/internal/domain"
	"github.com/siphor/siphor/internal/infra/sqlite"
)

func newTestService(t *testing.T) (*Service, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := New(db)
	s.now = func() time.Time {
		return time.Date(2024, 3, 6, 10, 30, 0, 0, time.UTC)
	}
	return s, db
}

func gain(id string, score int) domain.Entry {
	return domain.Entry{ID: id, Name: id, ScoreType: domain.ScoreGain, FixedScore: &score}
}

func TestExportIncludesAllStores(t *testing.T) {
	s, db := newTestService(t)

	db.SaveDayLedger("2024-03-04", domain.DayLedger{Gains: []domain.Entry{gain("a", 5)}})
	db.SaveDayLedger("2024-03-05", domain.DayLedger{Gains: []domain.Entry{gain("b", 7)}})
	db.UpsertGoalProgress("week-2024-03-04", "goal-exercise", domain.GoalProgress{Count: 2})
	db.UpsertBounty("week-2024-03-04", domain.Bounty{ID: "b1", Title: "clean", Points: 10})

	doc, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if doc.Version != Version {
		t.Errorf("version = %q, want %q", doc.Version, Version)
	}
	if doc.ExportDate != "2024-03-06T10:30:00Z" {
		t.Errorf("exportDate = %q", doc.ExportDate)
	}
	if len(doc.Data) != 2 {
		t.Fatalf("data = %d days, want 2", len(doc.Data))
	}
	if doc.Data[0].DateKey != "2024-03-04" || doc.Data[1].DateKey != "2024-03-05" {
		t.Errorf("days out of order: %s, %s", doc.Data[0].DateKey, doc.Data[1].DateKey)
	}
	if len(doc.WeeklyGoals) != 1 || doc.WeeklyGoals[0].WeekKey != "week-2024-03-04" ||
		doc.WeeklyGoals[0].State.Goals["goal-exercise"].Count != 2 {
		t.Errorf("weeklyGoals = %+v", doc.WeeklyGoals)
	}
	if len(doc.WeeklyBounties) != 1 || len(doc.WeeklyBounties[0].Items) != 1 {
		t.Errorf("weeklyBounties = %+v", doc.WeeklyBounties)
	}
}

func TestExportSkipsEmptyDays(t *testing.T) {
	s, db := newTestService(t)
	db.SaveDayLedger("2024-03-04", domain.DayLedger{})

	doc, _ := s.Export()
	if len(doc.Data) != 0 {
		t.Errorf("data = %+v, want empty days skipped", doc.Data)
	}
}

func TestImportRoundTrip(t *testing.T) {
	s, db := newTestService(t)

	db.SaveDayLedger("2024-03-04", domain.DayLedger{Gains: []domain.Entry{gain("a", 5)}})
	db.UpsertGoalProgress("week-2024-03-04", "goal-exercise", domain.GoalProgress{Count: 1, Rewarded: true})
	doc, _ := s.Export()

	// Fresh database.
	s2, db2 := newTestService(t)
	days, err := s2.Import(doc)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if days != 1 {
		t.Errorf("days = %d, want 1", days)
	}

	ledger, _ := db2.LoadDayLedger("2024-03-04")
	if len(ledger.Gains) != 1 || ledger.Gains[0].ID != "a" {
		t.Errorf("ledger = %+v", ledger)
	}
	state, _ := db2.LoadWeekState("week-2024-03-04")
	if p := state.Goals["goal-exercise"]; p.Count != 1 || !p.Rewarded {
		t.Errorf("progress = %+v", p)
	}
}

// The weekly sections are lists of {weekKey, ...} records on the wire, same
// as data; a document using that shape must decode and import cleanly.
func TestDocumentWireFormatUsesWeekKeyedLists(t *testing.T) {
	s, db := newTestService(t)

	raw := `{
		"version": "1.0",
		"exportDate": "2024-03-06T00:00:00Z",
		"data": [
			{"dateKey": "2024-03-04", "state": {"deductions": [], "gains": [
				{"id": "a", "name": "a", "scoreType": "gain", "fixedScore": 5}
			]}}
		],
		"weeklyGoals": [
			{"weekKey": "week-2024-03-04", "state": {"goals": {"goal-exercise": {"count": 2, "rewarded": true}}}}
		],
		"weeklyBounties": [
			{"weekKey": "week-2024-03-04", "items": [{"id": "b1", "title": "clean", "points": 10}]}
		]
	}`
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if _, err := s.Import(doc); err != nil {
		t.Fatalf("import: %v", err)
	}
	state, _ := db.LoadWeekState("week-2024-03-04")
	if p := state.Goals["goal-exercise"]; p.Count != 2 || !p.Rewarded {
		t.Errorf("progress = %+v", p)
	}
	items, _ := db.ListBounties("week-2024-03-04")
	if len(items) != 1 || items[0].ID != "b1" {
		t.Errorf("bounties = %+v", items)
	}

	// And the export side writes the same shape back.
	out, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	encoded, _ := json.Marshal(out)
	var shape struct {
		WeeklyGoals    []json.RawMessage `json:"weeklyGoals"`
		WeeklyBounties []json.RawMessage `json:"weeklyBounties"`
	}
	if err := json.Unmarshal(encoded, &shape); err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if len(shape.WeeklyGoals) != 1 || len(shape.WeeklyBounties) != 1 {
		t.Errorf("weekly sections not list-shaped: %s", encoded)
	}
}

func TestImportOverwritesNamedDaysOnly(t *testing.T) {
	s, db := newTestService(t)

	db.SaveDayLedger("2024-03-04", domain.DayLedger{Gains: []domain.Entry{gain("old", 1)}})
	db.SaveDayLedger("2024-03-05", domain.DayLedger{Gains: []domain.Entry{gain("keep", 2)}})

	_, err := s.Import(Document{
		Version:    Version,
		ExportDate: "2024-03-06T00:00:00Z",
		Data: []sqlite.DayRecord{
			{DateKey: "2024-03-04", State: domain.DayLedger{Gains: []domain.Entry{gain("new", 3)}}},
		},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	imported, _ := db.LoadDayLedger("2024-03-04")
	if len(imported.Gains) != 1 || imported.Gains[0].ID != "new" {
		t.Errorf("named day = %+v, want overwritten", imported.Gains)
	}
	kept, _ := db.LoadDayLedger("2024-03-05")
	if len(kept.Gains) != 1 || kept.Gains[0].ID != "keep" {
		t.Errorf("unnamed day = %+v, want untouched", kept.Gains)
	}
}

func TestImportRejectsBeforeWriting(t *testing.T) {
	s, db := newTestService(t)

	doc := Document{
		Version:    Version,
		ExportDate: "2024-03-06T00:00:00Z",
		Data: []sqlite.DayRecord{
			{DateKey: "2024-03-04", State: domain.DayLedger{Gains: []domain.Entry{gain("ok", 1)}}},
			{DateKey: "not-a-date", State: domain.DayLedger{}},
		},
	}
	if _, err := s.Import(doc); !errors.Is(err, domain.ErrInvalidImport) {
		t.Fatalf("err = %v, want ErrInvalidImport", err)
	}

	// The valid day before the bad one must not have been written.
	ledger, _ := db.LoadDayLedger("2024-03-04")
	if !ledger.IsEmpty() {
		t.Errorf("partial import detected: %+v", ledger)
	}
}

func TestImportValidation(t *testing.T) {
	s, _ := newTestService(t)

	day := func(state domain.DayLedger) []sqlite.DayRecord {
		return []sqlite.DayRecord{{DateKey: "2024-03-04", State: state}}
	}

	tests := []struct {
		name string
		doc  Document
	}{
		{"missing version", Document{ExportDate: "x", Data: []sqlite.DayRecord{}}},
		{"missing exportDate", Document{Version: Version, Data: []sqlite.DayRecord{}}},
		{"nil data", Document{Version: Version, ExportDate: "x"}},
		{"unknown version", Document{Version: "9.9", ExportDate: "x", Data: []sqlite.DayRecord{}}},
		{"entry without id", Document{Version: Version, ExportDate: "x",
			Data: day(domain.DayLedger{Gains: []domain.Entry{{ScoreType: domain.ScoreGain}}})}},
		{"entry on wrong list", Document{Version: Version, ExportDate: "x",
			Data: day(domain.DayLedger{Deductions: []domain.Entry{gain("g", 1)}})}},
		{"bad week key", Document{Version: Version, ExportDate: "x", Data: []sqlite.DayRecord{},
			WeeklyGoals: []WeekGoalsRecord{{WeekKey: "2024-03-04"}}}},
		{"bounty without id", Document{Version: Version, ExportDate: "x", Data: []sqlite.DayRecord{},
			WeeklyBounties: []WeekBountiesRecord{{WeekKey: "week-2024-03-04", Items: []domain.Bounty{{Title: "x"}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Import(tt.doc); !errors.Is(err, domain.ErrInvalidImport) {
				t.Errorf("err = %v, want ErrInvalidImport", err)
			}
		})
	}
}

func TestImportLeavesBankAndHistoryAlone(t *testing.T) {
	s, db := newTestService(t)

	db.SetDemand(300)
	db.UpsertHistoryPoint(domain.AnchorDate, 788)

	doc := Document{
		Version:    Version,
		ExportDate: "2024-03-06T00:00:00Z",
		Data: []sqlite.DayRecord{
			{DateKey: "2024-03-04", State: domain.DayLedger{Gains: []domain.Entry{gain("a", 5)}}},
		},
	}
	if _, err := s.Import(doc); err != nil {
		t.Fatalf("import: %v", err)
	}

	bank, _ := db.LoadBankState()
	if bank.Demand != 300 {
		t.Errorf("demand = %d, want untouched 300", bank.Demand)
	}
	total, ok, _ := db.LatestTotalAtOrBefore(domain.AnchorDate)
	if !ok || total != 788 {
		t.Errorf("anchor = %d (ok=%v), want untouched 788", total, ok)
	}
}
