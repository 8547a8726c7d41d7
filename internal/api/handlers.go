package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/siphor/siphor/internal/app/backup"
	"github.com/siphor/siphor/internal/app/ledger"
	"github.com/siphor/siphor/internal/domain"
)

// ─── Day Ledger ─────────────────────────────────────────────────────────────

// dayResponse is the wire form of one day's board.
type dayResponse struct {
	DateKey    string         `json:"dateKey"`
	WeekKey    string         `json:"weekKey"`
	DayScore   int            `json:"dayScore"`
	Deductions []domain.Entry `json:"deductions"`
	Gains      []domain.Entry `json:"gains"`
}

func (s *Server) writeDay(w http.ResponseWriter, dateKey string, l domain.DayLedger) {
	if l.Deductions == nil {
		l.Deductions = []domain.Entry{}
	}
	if l.Gains == nil {
		l.Gains = []domain.Entry{}
	}
	writeJSON(w, http.StatusOK, dayResponse{
		DateKey:    dateKey,
		WeekKey:    domain.WeekKey(dateKey),
		DayScore:   domain.DayScore(l),
		Deductions: l.Deductions,
		Gains:      l.Gains,
	})
}

func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	dateKey := chi.URLParam(r, "dateKey")
	l, err := s.ledger.Day(dateKey)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeDay(w, dateKey, l)
}

func (s *Server) handleClearDay(w http.ResponseWriter, r *http.Request) {
	dateKey := chi.URLParam(r, "dateKey")
	if err := s.ledger.Clear(dateKey); err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeDay(w, dateKey, domain.DayLedger{})
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	dateKey := chi.URLParam(r, "dateKey")
	var payload ledger.DropPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	l, err := s.ledger.Drop(dateKey, payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeDay(w, dateKey, l)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	dateKey := chi.URLParam(r, "dateKey")
	list, ok := parseList(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "list must be gains or deductions")
		return
	}
	l, err := s.ledger.Remove(dateKey, list, chi.URLParam(r, "entryID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeDay(w, dateKey, l)
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	focus, err := s.ledger.Focus(chi.URLParam(r, "dateKey"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, focus)
}

// ─── Entry Edits ────────────────────────────────────────────────────────────

func (s *Server) handleSetCount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Count int `json:"count"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	dateKey := chi.URLParam(r, "dateKey")
	l, err := s.ledger.SetCount(dateKey, chi.URLParam(r, "entryID"), body.Count)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeDay(w, dateKey, l)
}

func (s *Server) handleSetIndex(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index int `json:"index"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	list, ok := parseList(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "list must be gains or deductions")
		return
	}
	dateKey := chi.URLParam(r, "dateKey")
	l, err := s.ledger.SetCriteriaIndex(dateKey, list, chi.URLParam(r, "entryID"), body.Index)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeDay(w, dateKey, l)
}

func (s *Server) handleToggleBonus(w http.ResponseWriter, r *http.Request) {
	dateKey := chi.URLParam(r, "dateKey")
	l, err := s.ledger.ToggleBonus(dateKey, chi.URLParam(r, "entryID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeDay(w, dateKey, l)
}

func (s *Server) handleEditCustom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
		Score       int    `json:"score"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	dateKey := chi.URLParam(r, "dateKey")
	l, err := s.ledger.EditCustom(dateKey, chi.URLParam(r, "entryID"), body.Description, body.Score)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeDay(w, dateKey, l)
}

func (s *Server) handlePauseTimer(w http.ResponseWriter, r *http.Request) {
	s.handleTimer(w, r, s.ledger.PauseTimer)
}

func (s *Server) handleResumeTimer(w http.ResponseWriter, r *http.Request) {
	s.handleTimer(w, r, s.ledger.ResumeTimer)
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request,
	op func(string, domain.ScoreType, string) (domain.DayLedger, error)) {

	list, ok := parseList(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "list must be gains or deductions")
		return
	}
	dateKey := chi.URLParam(r, "dateKey")
	l, err := op(dateKey, list, chi.URLParam(r, "entryID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeDay(w, dateKey, l)
}

// ─── Weekly Goals ───────────────────────────────────────────────────────────

func (s *Server) handleWeekGoals(w http.ResponseWriter, r *http.Request) {
	dateKey := chi.URLParam(r, "dateKey")
	if !domain.ValidDateKey(dateKey) {
		writeError(w, http.StatusBadRequest, "bad date key")
		return
	}
	state, err := s.goals.ValidateWeek(dateKey)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"weekKey": domain.WeekKey(dateKey),
		"goals":   state.Goals,
	})
}

// ─── History ────────────────────────────────────────────────────────────────

func (s *Server) handleHistoryTotal(w http.ResponseWriter, r *http.Request) {
	dateKey := chi.URLParam(r, "dateKey")
	if !domain.ValidDateKey(dateKey) {
		writeError(w, http.StatusBadRequest, "bad date key")
		return
	}
	total, err := s.hist.TotalUpToDate(dateKey)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dateKey": dateKey,
		"total":   total,
	})
}

func (s *Server) handleHistoryRebuild(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Initial *int `json:"initial"`
	}
	if r.ContentLength > 0 && !decodeBody(w, r, &body) {
		return
	}

	var err error
	if body.Initial != nil {
		err = s.hist.RebuildWithInitial(*body.Initial)
	} else {
		err = s.hist.Rebuild()
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	scores, err := s.ledger.DayScores()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": scores})
}

// ─── Bank ───────────────────────────────────────────────────────────────────

func (s *Server) handleBankState(w http.ResponseWriter, r *http.Request) {
	state, err := s.bank.State()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if state.Fixed == nil {
		state.Fixed = []domain.FixedDeposit{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"demand":    state.Demand,
		"fixed":     state.Fixed,
		"termTotal": state.TermTotal(),
	})
}

type bankRequest struct {
	DateKey string             `json:"dateKey"`
	Amount  int64              `json:"amount"`
	Mode    domain.DepositMode `json:"mode,omitempty"`
}

func (s *Server) handleBankDeposit(w http.ResponseWriter, r *http.Request) {
	var body bankRequest
	if !decodeBody(w, r, &body) {
		return
	}
	l, err := s.ledger.BankDeposit(body.DateKey, body.Amount, body.Mode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeDay(w, body.DateKey, l)
}

func (s *Server) handleBankWithdraw(w http.ResponseWriter, r *http.Request) {
	var body bankRequest
	if !decodeBody(w, r, &body) {
		return
	}
	l, err := s.ledger.BankWithdraw(body.DateKey, body.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeDay(w, body.DateKey, l)
}

// ─── Backup ─────────────────────────────────────────────────────────────────

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.backup.Export()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var doc backup.Document
	if !decodeBody(w, r, &doc) {
		return
	}
	days, err := s.backup.Import(doc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "imported",
		"days":   days,
	})
}

// ─── Bounties ───────────────────────────────────────────────────────────────

func (s *Server) handleListBounties(w http.ResponseWriter, r *http.Request) {
	items, err := s.bounty.List(chi.URLParam(r, "weekKey"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []domain.Bounty{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) handleAddBounty(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title  string `json:"title"`
		Points int    `json:"points"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	b, err := s.bounty.Add(chi.URLParam(r, "weekKey"), body.Title, body.Points)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleToggleBounty(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DateKey string `json:"dateKey"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	b, err := s.bounty.Toggle(chi.URLParam(r, "weekKey"), chi.URLParam(r, "bountyID"), body.DateKey)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ─── Catalog ────────────────────────────────────────────────────────────────

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog)
}
