// Package api provides the HTTP server: day ledgers, weekly goals and
// bounties, the bank, total-score history, and backup import/export.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/siphor/siphor/internal/app/backup"
	"github.com/siphor/siphor/internal/app/bank"
	"github.com/siphor/siphor/internal/app/bounty"
	"github.com/siphor/siphor/internal/app/goals"
	"github.com/siphor/siphor/internal/app/history"
	"github.com/siphor/siphor/internal/app/ledger"
	"github.com/siphor/siphor/internal/domain"
	"github.com/siphor/siphor/internal/infra/catalog"
)

// Version is reported by /api/version.
const Version = "0.1.0"

// Server is the HTTP API server.
type Server struct {
	ledger  *ledger.Service
	goals   *goals.Service
	hist    *history.Service
	bank    *bank.Service
	bounty  *bounty.Service
	backup  *backup.Service
	catalog *catalog.Catalog

	metricsEnabled bool
}

// NewServer creates an API server over the application services.
func NewServer(l *ledger.Service, g *goals.Service, h *history.Service,
	b *bank.Service, bo *bounty.Service, bk *backup.Service, cat *catalog.Catalog) *Server {
	return &Server{ledger: l, goals: g, hist: h, bank: b, bounty: bo, backup: bk, catalog: cat}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": Version})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/days/{dateKey}", func(r chi.Router) {
			r.Get("/", s.handleGetDay)
			r.Delete("/", s.handleClearDay)
			r.Get("/focus", s.handleFocus)
			r.Post("/entries", s.handleDrop)
			r.Route("/entries/{list}/{entryID}", func(r chi.Router) {
				r.Delete("/", s.handleRemove)
				r.Post("/count", s.handleSetCount)
				r.Post("/index", s.handleSetIndex)
				r.Post("/bonus", s.handleToggleBonus)
				r.Post("/custom", s.handleEditCustom)
				r.Post("/timer/pause", s.handlePauseTimer)
				r.Post("/timer/resume", s.handleResumeTimer)
			})
		})

		r.Get("/goals/{dateKey}", s.handleWeekGoals)

		r.Get("/history/total/{dateKey}", s.handleHistoryTotal)
		r.Post("/history/rebuild", s.handleHistoryRebuild)
		r.Get("/history/heatmap", s.handleHeatmap)

		r.Get("/bank", s.handleBankState)
		r.Post("/bank/deposit", s.handleBankDeposit)
		r.Post("/bank/withdraw", s.handleBankWithdraw)

		r.Get("/backup/export", s.handleExport)
		r.Post("/backup/import", s.handleImport)

		r.Route("/bounties/{weekKey}", func(r chi.Router) {
			r.Get("/", s.handleListBounties)
			r.Post("/", s.handleAddBounty)
			r.Post("/{bountyID}/toggle", s.handleToggleBounty)
		})

		r.Get("/catalog", s.handleCatalog)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeServiceError maps service sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDayLocked),
		errors.Is(err, domain.ErrWeekLocked),
		errors.Is(err, domain.ErrInsufficientFunds):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrGoalNotFound),
		errors.Is(err, domain.ErrDepositNotFound),
		errors.Is(err, domain.ErrBountyNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrBadPayload),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidImport):
		status = http.StatusBadRequest
	}
	writeError(w, status, err.Error())
}

// parseList reads the {list} URL segment.
func parseList(r *http.Request) (domain.ScoreType, bool) {
	switch chi.URLParam(r, "list") {
	case "gains":
		return domain.ScoreGain, true
	case "deductions":
		return domain.ScoreDeduction, true
	}
	return "", false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
